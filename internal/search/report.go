package search

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tbourn/catecismo-search/internal/domain"
)

// State is the observable end state of a build.
type State string

const (
	// StateReady: every document loaded and at least one entry.
	StateReady State = "ready"
	// StatePartial: some documents failed, at least one entry.
	StatePartial State = "partial"
	// StateDegraded: documents loaded but nothing was extracted, which
	// points at a selector/markup mismatch.
	StateDegraded State = "degraded"
	// StateFailed: no document could be loaded.
	StateFailed State = "failed"
)

// Status messages shown to the reader.
const (
	MsgLoading  = "Carregando dados do Catecismo..."
	MsgDegraded = "Nenhum conteúdo indexado. Verifique a estrutura dos arquivos HTML."
	MsgFailed   = "Erro: Nenhum arquivo do Catecismo pôde ser carregado."
)

// DocumentReport is the outcome of one source.
type DocumentReport struct {
	Source  domain.Source `json:"source"`
	Loaded  bool          `json:"loaded"`
	Entries int           `json:"entries"`
	Err     error         `json:"-"`
}

// ErrorText returns the failure text, or "".
func (d DocumentReport) ErrorText() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

// MarshalJSON adds the failure text as "error".
func (d DocumentReport) MarshalJSON() ([]byte, error) {
	type plain DocumentReport
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(d), d.ErrorText()})
}

// Report summarizes a build.
type Report struct {
	State           State            `json:"state"`
	DocumentsLoaded int              `json:"documents_loaded"`
	DocumentsTotal  int              `json:"documents_total"`
	Entries         int              `json:"entries"`
	Documents       []DocumentReport `json:"documents"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
}

// Message returns the status line for the report's state. A partial build
// names the last document that failed.
func (r Report) Message() string {
	switch r.State {
	case StateReady:
		return fmt.Sprintf("Catecismo carregado. Pronto para busca. (%d parágrafos indexados)", r.Entries)
	case StatePartial:
		for i := len(r.Documents) - 1; i >= 0; i-- {
			if !r.Documents[i].Loaded {
				return fmt.Sprintf("Erro ao carregar %s. Tente recarregar a página.", r.Documents[i].Source.Label)
			}
		}
		return ""
	case StateDegraded:
		return MsgDegraded
	case StateFailed:
		return MsgFailed
	}
	return ""
}

// Transient reports whether the message should clear itself after a while.
func (r Report) Transient() bool { return r.State == StateReady }
