package rules

// Synthetic rule IDs emitted by checks that live outside the regex tables.
// They share the global ID namespace with the tables below.
const (
	RuleIDInvisible  = "INVIS-001"
	RuleIDEntropy    = "ENT-001"
	RuleIDConsentGap = "CONSENT-001"
)

// HighEntropyThreshold is the bits-per-symbol level above which a fenced
// code block is reported as likely obfuscated or machine-generated.
const HighEntropyThreshold = 4.5

var (
	injectionRules    []*Rule
	exfiltrationRules []*Rule
	escalationRules   []*Rule
	obfuscationRules  []*Rule
	mcpToolRules      []*Rule
)

func init() {
	injectionRules = buildInjectionRules()
	exfiltrationRules = buildExfiltrationRules()
	escalationRules = buildEscalationRules()
	obfuscationRules = buildObfuscationRules()
	mcpToolRules = buildMCPToolRules()
}

// InjectionRules returns the prompt-injection rule set.
func InjectionRules() []*Rule { return injectionRules }

// ExfiltrationRules returns the data-exfiltration rule set.
func ExfiltrationRules() []*Rule { return exfiltrationRules }

// EscalationRules returns the privilege-escalation rule set.
func EscalationRules() []*Rule { return escalationRules }

// ObfuscationRules returns the obfuscation rule set.
func ObfuscationRules() []*Rule { return obfuscationRules }

// MCPToolRules returns the source-code rule set for MCP tool implementations.
func MCPToolRules() []*Rule { return mcpToolRules }

// ProseRuleSets returns the rule sets applied to prose content (skill files,
// commands, diffs), in the order findings should be reported.
func ProseRuleSets() [][]*Rule {
	return [][]*Rule{injectionRules, exfiltrationRules, escalationRules, obfuscationRules}
}

// AllRules returns every catalog rule across all sets, used by tests to
// verify global ID uniqueness.
func AllRules() []*Rule {
	var all []*Rule
	all = append(all, injectionRules...)
	all = append(all, exfiltrationRules...)
	all = append(all, escalationRules...)
	all = append(all, obfuscationRules...)
	all = append(all, mcpToolRules...)
	return all
}

func buildInjectionRules() []*Rule {
	return []*Rule{
		newRule("INJ-001", CategoryInjection, SeverityCritical,
			`(?i)ignore\s+(?:all\s+)?(?:previous|prior|above|earlier)\s+(?:instructions|directions|prompts?|rules)`,
			"instruction-override phrase",
			"Remove the override phrase or quote it inertly in a code span"),
		newRule("INJ-002", CategoryInjection, SeverityCritical,
			`(?i)disregard\s+(?:all\s+)?(?:previous|prior|earlier|your)\s+(?:instructions|context|rules|training)`,
			"instruction-override phrase",
			"Remove the override phrase or quote it inertly in a code span"),
		newRule("INJ-003", CategoryInjection, SeverityHigh,
			`(?i)(?:new|updated|real|actual)\s+(?:system\s+)?instructions\s*:`,
			"instruction replacement marker",
			"Content must not introduce replacement instructions"),
		newRule("INJ-004", CategoryInjection, SeverityHigh,
			`(?i)\byou\s+are\s+now\s+(?:a|an|in|the)\b`,
			"persona override attempt",
			"Remove persona reassignment language"),
		newRule("INJ-005", CategoryInjection, SeverityHigh,
			`(?i)do\s+not\s+(?:tell|inform|alert|warn|mention\s+(?:this\s+)?to)\s+the\s+user`,
			"concealment directive",
			"Content must not instruct the agent to hide actions from the user"),
		newRule("INJ-006", CategoryInjection, SeverityHigh,
			`(?i)</?\s*(?:system|assistant|human)\s*>`,
			"fake conversation-role tag",
			"Remove role tags from untrusted content"),
		// Known to over-trigger on benign operational text such as
		// "the system: Linux Ubuntu 22.04"; accepted precision trade-off.
		newRule("INJ-007", CategoryInjection, SeverityHigh,
			`(?mi)^\s*system\s*:`,
			"standalone system-role marker",
			"Avoid line-leading 'system:' in untrusted content"),
		newRule("INJ-008", CategoryInjection, SeverityMedium,
			`(?i)pretend\s+(?:to\s+be|you\s+are|that\s+you)\b`,
			"roleplay coercion phrase",
			"Remove roleplay coercion language"),
		newRule("INJ-009", CategoryInjection, SeverityMedium,
			`(?i)without\s+(?:telling|asking|notifying|confirming\s+with)\s+the\s+user`,
			"consent-bypass phrase",
			"Actions on the user's behalf require the user's awareness"),
		newRule("INJ-010", CategoryInjection, SeverityHigh,
			`(?i)(?:print|reveal|show|repeat|output)\b[^\n]{0,40}\bsystem\s+prompt`,
			"system-prompt disclosure request",
			"Remove requests to disclose the agent's system prompt"),
	}
}

func buildExfiltrationRules() []*Rule {
	return []*Rule{
		newRule("EXF-001", CategoryExfiltration, SeverityCritical,
			`(?i)curl(?:\s+\S+)*?\s+(?:-d|--data(?:-binary|-raw)?|--upload-file|-T|-F)\b`,
			"outbound data upload via curl",
			"Uploads from agent context require explicit user consent"),
		newRule("EXF-002", CategoryExfiltration, SeverityCritical,
			`(?i)(?:curl|wget|http)\S*[^\n]*\$\{?[A-Z_]*(?:TOKEN|SECRET|KEY|PASSWORD|CREDENTIAL)[A-Z_]*\b`,
			"credential environment variable in network command",
			"Never interpolate credential variables into network commands"),
		newRule("EXF-003", CategoryExfiltration, SeverityHigh,
			`(?:~|\$HOME|/home/[A-Za-z0-9._-]+|/Users/[A-Za-z0-9._-]+)/\.ssh/`,
			"SSH key material path",
			"Access to SSH keys is out of scope for agent tasks"),
		newRule("EXF-004", CategoryExfiltration, SeverityHigh,
			`\.aws/credentials|\.config/gcloud|\.azure/|\.kube/config`,
			"cloud credential file path",
			"Access to cloud credential files is out of scope for agent tasks"),
		newRule("EXF-005", CategoryExfiltration, SeverityHigh,
			`/etc/(?:passwd|shadow|sudoers)`,
			"system account file path",
			"Access to system account files is out of scope for agent tasks"),
		newRule("EXF-006", CategoryExfiltration, SeverityHigh,
			`(?i)(?:webhook\.site|requestbin\.com|pipedream\.net|interactsh\.com|oastify\.com|burpcollaborator\.net)`,
			"known exfiltration listener domain",
			"Remove the callback domain"),
		newRule("EXF-007", CategoryExfiltration, SeverityMedium,
			`(?i)(?:nslookup|dig|host)\s+\S*(?:\$|\x60)`,
			"DNS query with interpolated data",
			"DNS lookups must not carry interpolated local data"),
		newRule("EXF-008", CategoryExfiltration, SeverityHigh,
			`(?i)(?:cat|base64|xxd|hexdump|strings)\s+(?:\S+/)?\.env\b`,
			"dotenv secrets read",
			"Reading .env files requires explicit user consent"),
		newRule("EXF-009", CategoryExfiltration, SeverityMedium,
			`(?i)\b(?:nc|ncat|netcat)\s+(?:-[a-zA-Z]+\s+)*\d{1,3}(?:\.\d{1,3}){3}`,
			"raw socket connection to IP address",
			"Remove the netcat invocation"),
	}
}

func buildEscalationRules() []*Rule {
	return []*Rule{
		newRule("ESC-001", CategoryEscalation, SeverityCritical,
			`(?i)\brm\s+(?:--?[a-zA-Z-]+\s+)*-[a-zA-Z]*(?:rf|fr)[a-zA-Z]*\s+(?:/(?:\s|$|\*)|~|\$HOME)`,
			"destructive recursive delete of root or home",
			"Never delete the filesystem root or home directory"),
		newRule("ESC-002", CategoryEscalation, SeverityCritical,
			`(?i)(?:curl|wget)\s+[^\n|]*\|\s*(?:ba|z|da)?sh\b`,
			"remote script piped to shell",
			"Download and inspect scripts before executing them"),
		newRule("ESC-003", CategoryEscalation, SeverityHigh,
			`(?i)\bsudo\s+\S+`,
			"privilege elevation via sudo",
			"Agent tasks must not require root privileges"),
		newRule("ESC-004", CategoryEscalation, SeverityHigh,
			`>>?\s*(?:~|\$HOME)/\.(?:bashrc|zshrc|profile|bash_profile|zprofile)`,
			"shell profile modification",
			"Persisting to shell startup files requires explicit user consent"),
		newRule("ESC-005", CategoryEscalation, SeverityMedium,
			`(?i)\bcrontab\s+-`,
			"cron table modification",
			"Scheduled-task changes require explicit user consent"),
		newRule("ESC-006", CategoryEscalation, SeverityMedium,
			`(?i)git\s+config\s+(?:--global\s+)?credential\.helper`,
			"git credential helper manipulation",
			"Credential helper changes require explicit user consent"),
		newRule("ESC-007", CategoryEscalation, SeverityHigh,
			`(?i)chmod\s+(?:-[a-zA-Z]+\s+)*0?777\b`,
			"world-writable permission grant",
			"Use least-privilege file modes"),
		newRule("ESC-008", CategoryEscalation, SeverityMedium,
			`(?i)(?:--no-verify\b|core\.hooksPath|hooks?\s+(?:disable|bypass))`,
			"guard hook bypass",
			"Do not bypass installed verification hooks"),
	}
}

func buildObfuscationRules() []*Rule {
	return []*Rule{
		newRule("OBF-001", CategoryObfuscation, SeverityCritical,
			`(?i)base64\s+(?:-d|-D|--decode)\b[^\n]*\|\s*(?:ba|z)?sh\b`,
			"base64 decode piped to shell",
			"Encoded payloads must be decoded and reviewed, never executed"),
		newRule("OBF-002", CategoryObfuscation, SeverityMedium,
			`[A-Za-z0-9+/]{120,}={0,2}`,
			"long base64-like blob",
			"Replace opaque blobs with readable content or a fetch reference"),
		newRule("OBF-003", CategoryObfuscation, SeverityMedium,
			`(?:\\x[0-9a-fA-F]{2}){8,}`,
			"hex escape sequence run",
			"Replace escape-encoded text with its readable form"),
		newRule("OBF-004", CategoryObfuscation, SeverityMedium,
			`(?:\\u[0-9a-fA-F]{4}){6,}`,
			"unicode escape sequence run",
			"Replace escape-encoded text with its readable form"),
	}
}

func buildMCPToolRules() []*Rule {
	return []*Rule{
		newRule("MCP-001", CategoryMCPTool, SeverityHigh,
			`\beval\s*\(`,
			"dynamic code evaluation",
			"Avoid eval; parse structured input instead"),
		newRule("MCP-002", CategoryMCPTool, SeverityHigh,
			`\bexec\s*\(`,
			"dynamic code execution",
			"Avoid exec; call the required function directly"),
		newRule("MCP-003", CategoryMCPTool, SeverityHigh,
			`subprocess\.(?:run|Popen|call|check_output|check_call)\s*\([^)\n]*shell\s*=\s*True`,
			"subprocess with shell=True",
			"Pass an argument vector instead of a shell string"),
		newRule("MCP-004", CategoryMCPTool, SeverityHigh,
			`os\.system\s*\(`,
			"shell execution via os.system",
			"Use subprocess with an argument vector"),
		newRule("MCP-005", CategoryMCPTool, SeverityHigh,
			`pickle\.loads?\s*\(`,
			"unsafe deserialization via pickle",
			"Use a safe format such as JSON for untrusted data"),
		newRule("MCP-006", CategoryMCPTool, SeverityMedium,
			`__import__\s*\(`,
			"dynamic module import",
			"Import modules statically"),
		newRule("MCP-007", CategoryMCPTool, SeverityMedium,
			`dict\s*\(\s*os\.environ|os\.environ\.items\s*\(`,
			"full environment harvest",
			"Read only the specific variables the tool needs"),
		newRule("MCP-008", CategoryMCPTool, SeverityMedium,
			`socket\.socket\s*\(`,
			"raw socket construction",
			"Use the declared transport instead of raw sockets"),
		newRule("MCP-009", CategoryMCPTool, SeverityMedium,
			`requests\.(?:get|post|put|delete)\s*\(\s*["']https?://\d{1,3}(?:\.\d{1,3}){3}`,
			"HTTP request to hardcoded IP address",
			"Use a named, documented endpoint"),
	}
}
