package knowledge

import (
	"strings"
	"text/template"
)

const answerTemplateText = `You are a knowledgeable, warm assistant. Answer the user's question accurately and clearly.
{{- if .Tone }}
The user currently seems to feel {{ .Tone }}. Keep that in mind, but stay focused on the answer.
{{- end }}
{{- if .Topics }}

Recent conversation topics: {{ join .Topics ", " }}.
{{- end }}
{{- if .Memories }}

Relevant things you know about the user:
{{- range .Memories }}
- {{ . }}
{{- end }}
{{- end }}

Question: {{ .Query }}

Answer:`

var answerTemplate = template.Must(template.New("answer").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(answerTemplateText))

type promptData struct {
	Query    string
	Tone     string
	Topics   []string
	Memories []string
}

func buildPrompt(data promptData) (string, error) {
	var sb strings.Builder
	if err := answerTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// minimalPrompt is the stripped retry prompt used after a hard generation
// failure, in case the contextual prompt itself triggered the error.
func minimalPrompt(query string) string {
	return "Answer the following question clearly and concisely.\n\nQuestion: " + query + "\n\nAnswer:"
}
