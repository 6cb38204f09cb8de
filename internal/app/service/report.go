package service

import (
	"fmt"
	"strings"

	"github.com/mmhelfer/teambot/internal/domain"
)

// StageStatus es el resultado de una etapa dentro de un workflow.
type StageStatus struct {
	Stage  string `json:"stage"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Report es la narrativa etapa-por-etapa que ve el que disparó el workflow.
// Success es el agregado; RolledBack indica que se intentó compensar (no
// garantiza que la compensación haya salido bien: eso lo cuentan las etapas).
type Report struct {
	Kind       string          `json:"kind"`
	TeamName   string          `json:"team_name"`
	TeamType   domain.TeamType `json:"team_type"`
	Stages     []StageStatus   `json:"stages"`
	Success    bool            `json:"success"`
	RolledBack bool            `json:"rolled_back,omitempty"`
}

func newReport(kind string, tt domain.TeamType, name string) *Report {
	return &Report{Kind: kind, TeamType: tt, TeamName: name}
}

func (r *Report) ok(stage, detail string) {
	r.Stages = append(r.Stages, StageStatus{Stage: stage, OK: true, Detail: detail})
}

func (r *Report) fail(stage, detail string) {
	r.Stages = append(r.Stages, StageStatus{Stage: stage, OK: false, Detail: detail})
}

// Summary arma el texto para responder en Discord.
func (r *Report) Summary() string {
	var b strings.Builder
	icon := "✅"
	if !r.Success {
		icon = "❌"
	}
	fmt.Fprintf(&b, "%s %s team '%s' (%s)\n", icon, r.Kind, r.TeamName, r.TeamType)
	for _, st := range r.Stages {
		mark := "✔"
		if !st.OK {
			mark = "✖"
		}
		fmt.Fprintf(&b, "%s %s", mark, st.Stage)
		if st.Detail != "" {
			fmt.Fprintf(&b, ": %s", st.Detail)
		}
		b.WriteString("\n")
	}
	if r.RolledBack {
		b.WriteString("↩️ rollback intentado; verificá el estado si alguna compensación falló\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
