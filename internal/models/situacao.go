package models

import "strings"

// Situacao is the lifecycle status of a medicamento.
type Situacao string

const (
	SituacaoAtivo   Situacao = "ATIVO"
	SituacaoInativo Situacao = "INATIVO"
)

// SituacoesValidas lists every accepted status, in display order.
var SituacoesValidas = []Situacao{SituacaoAtivo, SituacaoInativo}

// NormalizeSituacao trims and upper-cases a raw status value.
func NormalizeSituacao(raw string) Situacao {
	return Situacao(strings.ToUpper(strings.TrimSpace(raw)))
}

// Valid reports whether s is one of SituacoesValidas.
func (s Situacao) Valid() bool {
	return s == SituacaoAtivo || s == SituacaoInativo
}

// OrDefault returns ATIVO for an unset status.
func (s Situacao) OrDefault() Situacao {
	if s == "" {
		return SituacaoAtivo
	}
	return s
}
