package conversation

import (
	"regexp"
	"strings"
)

// GuardResult is the outcome of scanning one inbound user message.
type GuardResult struct {
	// Text is the message after truncation to the configured maximum length.
	Text string
	// Safe is false when any suspicious pattern matched. The caller decides
	// what to do with an unsafe message; nothing is redacted here.
	Safe bool
	// Reason labels the first detection signal that fired.
	Reason string
}

// guardPattern is a compiled regex with a reason label.
type guardPattern struct {
	re     *regexp.Regexp
	reason string
}

// Instruction override — attempts to replace the assistant's instructions.
var instructionOverridePatterns = []guardPattern{
	{regexp.MustCompile(`(?i)ignora\s+(todo|todas\s+las\s+(instrucciones|reglas)|las\s+(instrucciones|reglas|indicaciones)|lo\s+anterior)`), "override:ignora_instrucciones"},
	{regexp.MustCompile(`(?i)olvida\s+(tus|las|todas\s+las)\s+(instrucciones|reglas|indicaciones)`), "override:olvida_instrucciones"},
	{regexp.MustCompile(`(?i)nuevas?\s+(instrucciones|reglas)\s*:`), "override:nuevas_instrucciones"},
	{regexp.MustCompile(`(?i)a\s+partir\s+de\s+ahora\s+(eres|ser[aá]s|act[uú]a|responde)`), "override:desde_ahora"},
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|your)\s+(instructions?|rules?|prompts?)`), "override:ignore_instructions"},
	{regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|your)\s+(instructions?|rules?)`), "override:forget_instructions"},
}

// Role hijack — attempts to reassign the assistant's identity or role.
var roleHijackPatterns = []guardPattern{
	{regexp.MustCompile(`(?i)act[uú]a\s+como\s`), "role_hijack:actua_como"},
	{regexp.MustCompile(`(?i)eres\s+(un\s+|una\s+|el\s+|la\s+)?(admin|administrador|root|sistema|desarrollador|dios)`), "role_hijack:eres"},
	{regexp.MustCompile(`(?i)ya\s+no\s+eres`), "role_hijack:ya_no_eres"},
	{regexp.MustCompile(`(?i)tu\s+(rol|tarea|funci[oó]n)\s+(ahora\s+)?es`), "role_hijack:tu_rol_es"},
	{regexp.MustCompile(`(?i)cambia\s+tu\s+(comportamiento|personalidad|rol)`), "role_hijack:cambia_tu"},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|my)\s`), "role_hijack:you_are_now"},
	{regexp.MustCompile(`(?i)pretend\s+(that\s+)?you\s+(are|have)`), "role_hijack:pretend"},
}

// Exfiltration — attempts to extract the system prompt or internal rules.
var exfiltrationPatterns = []guardPattern{
	{regexp.MustCompile(`(?i)(muestra|mu[eé]strame|revela|rev[eé]lame|imprime|repite|dime)\s+(tu|tus|el|la|las)?\s*(prompt|instrucciones|reglas|mensaje\s+del?\s+sistema|configuraci[oó]n)`), "exfiltration:muestra_prompt"},
	{regexp.MustCompile(`(?i)cu[aá]l(es)?\s+(es|son)\s+(tu|tus)\s+(prompt|instrucciones|reglas)`), "exfiltration:cual_es_tu_prompt"},
	{regexp.MustCompile(`(?i)(reveal|show|display|print|repeat)\s+(your\s+)?(system\s+prompt|instructions?|rules?|initial\s+prompt)`), "exfiltration:reveal_prompt"},
	{regexp.MustCompile(`(?i)repite\s+(todo\s+)?(el\s+texto|lo)\s+(anterior|de\s+arriba)`), "exfiltration:repite_anterior"},
}

// Validation bypass — attempts to make the booking flow skip its checks.
var validationBypassPatterns = []guardPattern{
	{regexp.MustCompile(`(?i)(confirma|agenda|reserva)\s+(la\s+cita\s+)?sin\s+(validar|verificar|preguntar|confirmar|datos)`), "bypass:confirma_sin"},
	{regexp.MustCompile(`(?i)(salta|s[aá]ltate|omite|ignora)\s+(la\s+|el\s+)?(validaci[oó]n|verificaci[oó]n|paso|chequeo)`), "bypass:salta_validacion"},
	{regexp.MustCompile(`(?i)no\s+(valides|verifiques|preguntes|pidas)\s`), "bypass:no_valides"},
	{regexp.MustCompile(`(?i)(skip|bypass)\s+(the\s+)?(validation|verification|checks?)`), "bypass:skip_validation"},
}

// allGuardPatterns combines all pattern groups in scan order.
var allGuardPatterns []guardPattern

func init() {
	allGuardPatterns = make([]guardPattern, 0, len(instructionOverridePatterns)+len(roleHijackPatterns)+len(exfiltrationPatterns)+len(validationBypassPatterns))
	allGuardPatterns = append(allGuardPatterns, instructionOverridePatterns...)
	allGuardPatterns = append(allGuardPatterns, roleHijackPatterns...)
	allGuardPatterns = append(allGuardPatterns, exfiltrationPatterns...)
	allGuardPatterns = append(allGuardPatterns, validationBypassPatterns...)
}

// punctuationRun matches a run of 4+ exclamation/question marks. Three or
// more runs in one message reads as abuse spam rather than enthusiasm.
var punctuationRun = regexp.MustCompile(`[!?¡¿]{4,}`)

const maxPunctuationRuns = 2

// ScanInput truncates oversized input and runs it against the suspicious
// pattern groups. It stops at the first match; false negatives are expected
// and acceptable since this is a heuristic defense layer, not a guarantee.
func ScanInput(text string, maxLength int) GuardResult {
	if maxLength > 0 {
		if runes := []rune(text); len(runes) > maxLength {
			text = string(runes[:maxLength])
		}
	}

	if strings.TrimSpace(text) == "" {
		return GuardResult{Text: text, Safe: true}
	}

	for _, p := range allGuardPatterns {
		if p.re.MatchString(text) {
			return GuardResult{Text: text, Reason: p.reason}
		}
	}

	if len(punctuationRun.FindAllString(text, -1)) > maxPunctuationRuns {
		return GuardResult{Text: text, Reason: "spam:punctuation_runs"}
	}

	return GuardResult{Text: text, Safe: true}
}
