/*
Package repair turns raw generative-model text into a validated SuggestionResult.

The model is asked for a single JSON object with a "suggestions" array and a
"transition_plan" string, but what comes back may contain line breaks inside
strings, trailing commas, markdown fences, surrounding prose, or no JSON at all.
Repair runs an ordered chain of stages; the first stage that yields a valid
result wins and the last stage always succeeds with a constant fallback.

# Stages

  - normalized: line breaks and whitespace runs collapsed, then parsed.
  - punctuation: trailing commas dropped and ':' / ',' spacing normalized, then parsed.
  - extracted: the span between the first '{' and the last '}', then parsed.
  - fields: "suggestions" and "transition_plan" matched independently by pattern.
  - fallback: the constant result returned by Fallback.
*/
package repair
