package llm

import (
	"fmt"
	"strings"

	"github.com/bundlescope/bundlescope/internal/models"
)

func buildAnalysisPrompt(digest string) string {
	return fmt.Sprintf(`You are an expert SRE reviewing a Kubernetes support bundle. Analyze the following cluster snapshot and provide a root cause analysis.

CLUSTER SNAPSHOT:
%s

TASK:
1. Summarize the overall cluster state in two or three sentences
2. Identify the most likely root causes with a likelihood (high/medium/low)
3. Provide actionable recommendations with a priority (critical/high/medium/low)
4. Name the affected components as namespace/name pairs

Please respond in JSON format with the following structure:
{
  "summary": "brief overall assessment",
  "root_causes": [{"issue": "...", "likelihood": "high|medium|low", "explanation": "..."}],
  "recommendations": [{"priority": "critical|high|medium|low", "action": "...", "rationale": "..."}],
  "affected_components": ["namespace/name"]
}

Respond with the JSON object only, no markdown fences and no prose around it.`, digest)
}

// QuestionSystemPrompt frames a streamed one-shot question around the
// digest; the question itself travels as the user query.
func QuestionSystemPrompt(digest string) string {
	return "You are an expert SRE answering questions about a Kubernetes support bundle.\n\nCLUSTER SNAPSHOT:\n" + digest
}

func buildQuestionPrompt(digest, question string, history []models.ChatMessage) string {
	var b strings.Builder

	b.WriteString("You are an expert SRE answering questions about a Kubernetes support bundle.\n\n")
	b.WriteString("CLUSTER SNAPSHOT:\n")
	b.WriteString(digest)

	if len(history) > 0 {
		b.WriteString("\n\nCONVERSATION SO FAR:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	fmt.Fprintf(&b, "\nQUESTION:\n%s\n\nAnswer concisely in plain text.", question)
	return b.String()
}
