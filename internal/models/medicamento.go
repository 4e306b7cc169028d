package models

import "time"

// DataFormato is the layout of data_criacao / data_alteracao in responses.
const DataFormato = "02-01-2006 15:04:05"

// Medicamento is a medication inventory record. The ID is supplied by the
// caller and never generated.
type Medicamento struct {
	ID               uint         `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LaboratorioID    uint         `json:"fk_id_laboratorio" gorm:"column:fk_id_laboratorio;not null;index"`
	Laboratorio      *Laboratorio `json:"laboratorio,omitempty" gorm:"foreignKey:LaboratorioID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Nome             string       `json:"nome" gorm:"type:varchar(150);not null;index"`
	IndicacaoUso     string       `json:"indicacao_uso" gorm:"column:indicacao_uso;type:text;not null"`
	Categoria        string       `json:"categoria" gorm:"type:varchar(100);not null"`
	TipoUnidade      string       `json:"tipo_unidade" gorm:"column:tipo_unidade;type:varchar(50)"`
	QuantidadeMinima int          `json:"quantidade_minima" gorm:"column:quantidade_minima;not null;default:0"`
	Img              string       `json:"img" gorm:"type:varchar(255)"`
	Situacao         Situacao     `json:"situacao" gorm:"type:varchar(10);not null;default:ATIVO;index"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (Medicamento) TableName() string {
	return "medicamentos"
}

// CreateMedicamentoInput carries a create request. QuantidadeMinima is a
// pointer so that an explicit zero is distinguishable from a missing value.
type CreateMedicamentoInput struct {
	ID               uint   `json:"id" form:"id" validate:"required"`
	LaboratorioID    uint   `json:"fk_id_laboratorio" form:"fk_id_laboratorio" validate:"required"`
	Nome             string `json:"nome" form:"nome" validate:"required,max=150"`
	IndicacaoUso     string `json:"indicacao_uso" form:"indicacao_uso" validate:"required"`
	Categoria        string `json:"categoria" form:"categoria" validate:"required,max=100"`
	TipoUnidade      string `json:"tipo_unidade" form:"tipo_unidade" validate:"omitempty,max=50"`
	QuantidadeMinima *int   `json:"quantidade_minima" form:"quantidade_minima" validate:"required,gte=0"`
	Img              string `json:"-" form:"-" validate:"required"`
}

// ToModel builds the record to persist. New records always start ATIVO.
func (in CreateMedicamentoInput) ToModel() *Medicamento {
	m := &Medicamento{
		ID:            in.ID,
		LaboratorioID: in.LaboratorioID,
		Nome:          in.Nome,
		IndicacaoUso:  in.IndicacaoUso,
		Categoria:     in.Categoria,
		TipoUnidade:   in.TipoUnidade,
		Img:           in.Img,
		Situacao:      SituacaoAtivo,
	}
	if in.QuantidadeMinima != nil {
		m.QuantidadeMinima = *in.QuantidadeMinima
	}
	return m
}

// MedicamentoUpdate is a partial update; nil fields are left untouched.
// NomeMedicamento is an accepted alias for Nome.
type MedicamentoUpdate struct {
	LaboratorioID    *uint   `json:"fk_id_laboratorio" form:"fk_id_laboratorio" validate:"omitempty,gt=0"`
	Nome             *string `json:"nome" form:"nome" validate:"omitempty,min=1,max=150"`
	NomeMedicamento  *string `json:"nome_medicamento" form:"nome_medicamento"`
	IndicacaoUso     *string `json:"indicacao_uso" form:"indicacao_uso" validate:"omitempty,min=1"`
	Categoria        *string `json:"categoria" form:"categoria" validate:"omitempty,min=1,max=100"`
	TipoUnidade      *string `json:"tipo_unidade" form:"tipo_unidade" validate:"omitempty,max=50"`
	QuantidadeMinima *int    `json:"quantidade_minima" form:"quantidade_minima" validate:"omitempty,gte=0"`
	Img              *string `json:"-" form:"-"`
}

// Normalize folds nome_medicamento into nome.
func (u *MedicamentoUpdate) Normalize() {
	if u.NomeMedicamento != nil && *u.NomeMedicamento != "" {
		nome := *u.NomeMedicamento
		u.Nome = &nome
	}
	u.NomeMedicamento = nil
}

// Columns returns the column → value set to write.
func (u MedicamentoUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.LaboratorioID != nil {
		cols["fk_id_laboratorio"] = *u.LaboratorioID
	}
	if u.Nome != nil {
		cols["nome"] = *u.Nome
	}
	if u.IndicacaoUso != nil {
		cols["indicacao_uso"] = *u.IndicacaoUso
	}
	if u.Categoria != nil {
		cols["categoria"] = *u.Categoria
	}
	if u.TipoUnidade != nil {
		cols["tipo_unidade"] = *u.TipoUnidade
	}
	if u.QuantidadeMinima != nil {
		cols["quantidade_minima"] = *u.QuantidadeMinima
	}
	if u.Img != nil {
		cols["img"] = *u.Img
	}
	return cols
}

func (u MedicamentoUpdate) IsEmpty() bool {
	return len(u.Columns()) == 0
}

// LaboratorioResumo is the laboratory part embedded in a medicamento response.
type LaboratorioResumo struct {
	NomeLaboratorio string `json:"nome_laboratorio"`
}

// MedicamentoResponse is the API view of a medicamento.
type MedicamentoResponse struct {
	ID               uint               `json:"id"`
	LaboratorioID    uint               `json:"fk_id_laboratorio"`
	Nome             string             `json:"nome"`
	IndicacaoUso     string             `json:"indicacao_uso"`
	Categoria        string             `json:"categoria"`
	TipoUnidade      string             `json:"tipo_unidade"`
	QuantidadeMinima int                `json:"quantidade_minima"`
	Img              string             `json:"img"`
	Situacao         Situacao           `json:"situacao"`
	DataCriacao      string             `json:"data_criacao"`
	DataAlteracao    string             `json:"data_alteracao"`
	Laboratorio      *LaboratorioResumo `json:"laboratorio,omitempty"`
}

func (m Medicamento) ToResponse() MedicamentoResponse {
	resp := MedicamentoResponse{
		ID:               m.ID,
		LaboratorioID:    m.LaboratorioID,
		Nome:             m.Nome,
		IndicacaoUso:     m.IndicacaoUso,
		Categoria:        m.Categoria,
		TipoUnidade:      m.TipoUnidade,
		QuantidadeMinima: m.QuantidadeMinima,
		Img:              m.Img,
		Situacao:         m.Situacao.OrDefault(),
		DataCriacao:      m.CreatedAt.Format(DataFormato),
		DataAlteracao:    m.UpdatedAt.Format(DataFormato),
	}
	if m.Laboratorio != nil {
		resp.Laboratorio = &LaboratorioResumo{NomeLaboratorio: m.Laboratorio.NomeLaboratorio}
	}
	return resp
}

func ToResponses(meds []Medicamento) []MedicamentoResponse {
	out := make([]MedicamentoResponse, 0, len(meds))
	for _, m := range meds {
		out = append(out, m.ToResponse())
	}
	return out
}

// MedicamentoSelectOption pairs a medicamento with its laboratory for
// select inputs in the UI.
type MedicamentoSelectOption struct {
	MedicamentoValue uint   `json:"medicamentoValue"`
	MedicamentoLabel string `json:"medicamentoLabel"`
	LaboratorioValue uint   `json:"laboratorioValue"`
	LaboratorioLabel string `json:"laboratorioLabel"`
}
