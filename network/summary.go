package network

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/habiliai/agentrouter/errors"
)

var summaryTemplate = template.Must(
	template.New("agents").
		Funcs(sprig.TxtFuncMap()).
		Parse(`{{ range . }}{{ toJson . }}
{{ end }}`),
)

// Summarize renders one JSON object per agent, newline separated.
func Summarize(agents []AgentInfo) (string, error) {
	var sb strings.Builder
	if err := summaryTemplate.Execute(&sb, agents); err != nil {
		return "", errors.Wrapf(err, "failed to render agent summary")
	}

	return strings.TrimSuffix(sb.String(), "\n"), nil
}
