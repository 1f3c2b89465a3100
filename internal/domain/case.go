package domain

import (
	"errors"
	"math"
	"strings"
)

// CaseStatus is one stage of the claim pipeline. The order is fixed and
// used for display and metrics only; transitions themselves are free jumps.
type CaseStatus string

const (
	StatusIniciado        CaseStatus = "iniciado"
	StatusReclamado       CaseStatus = "reclamado"
	StatusConOfrecimiento CaseStatus = "con_ofrecimiento"
	StatusEnMediacion     CaseStatus = "en_mediacion"
	StatusEnJuicio        CaseStatus = "en_juicio"
	StatusEsperandoPago   CaseStatus = "esperando_pago"
	StatusCobrado         CaseStatus = "cobrado"
)

// StatusAll is the pseudo-filter that matches every case status.
const StatusAll = "todos"

// PipelineStatuses lists the pipeline stages in lifecycle order.
var PipelineStatuses = []CaseStatus{
	StatusIniciado,
	StatusReclamado,
	StatusConOfrecimiento,
	StatusEnMediacion,
	StatusEnJuicio,
	StatusEsperandoPago,
	StatusCobrado,
}

var statusLabels = map[CaseStatus]string{
	StatusIniciado:        "Iniciado",
	StatusReclamado:       "Reclamado",
	StatusConOfrecimiento: "Con ofrecimiento",
	StatusEnMediacion:     "En mediación",
	StatusEnJuicio:        "En juicio",
	StatusEsperandoPago:   "Esperando pago",
	StatusCobrado:         "Cobrado",
}

// Valid reports whether s is one of the seven pipeline stages.
func (s CaseStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Index returns the position of s in the pipeline. Unknown statuses map to
// the first stage, matching how they are rendered.
func (s CaseStatus) Index() int {
	for i, st := range PipelineStatuses {
		if st == s {
			return i
		}
	}
	return 0
}

// Label returns the display label for the status.
func (s CaseStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return statusLabels[StatusIniciado]
}

// Closed reports whether the case has been collected and left the active
// pipeline.
func (s CaseStatus) Closed() bool { return s == StatusCobrado }

// OfferRelevant reports whether an offer amount is meaningful at this
// stage (from con_ofrecimiento onward).
func (s CaseStatus) OfferRelevant() bool {
	return s.Valid() && s.Index() >= StatusConOfrecimiento.Index()
}

// CaseNote is one entry of a case's append-only note log.
type CaseNote struct {
	Text string `json:"texto"`
	Date string `json:"fecha"`
	TS   int64  `json:"ts"`
}

// Case is a claim referred by a PAS. Dates are ISO YYYY-MM-DD strings
// (empty when unset); monetary amounts are nullable and non-negative.
type Case struct {
	ID                 int64      `json:"id" db:"caso_id"`
	Insured            string     `json:"asegurado" db:"asegurado"`
	Status             CaseStatus `json:"estado" db:"estado"`
	Note               string     `json:"nota" db:"nota"`
	ReferralDate       string     `json:"fecha_derivacion" db:"fecha_derivacion"`
	InsuredContactDate string     `json:"fecha_contacto_asegurado" db:"fecha_contacto_asegurado"`
	ClaimStartDate     string     `json:"fecha_inicio_reclamo" db:"fecha_inicio_reclamo"`
	LastMovementDate   string     `json:"fecha_ultimo_movimiento" db:"fecha_ultimo_movimiento"`
	OfferAmount        *float64   `json:"monto_ofrecimiento" db:"monto_ofrecimiento"`
	InsuredPayout      *float64   `json:"monto_cobro_asegurado" db:"monto_cobro_asegurado"`
	MyFee              *float64   `json:"monto_cobro_yo" db:"monto_cobro_yo"`
	PASCommission      *float64   `json:"monto_comision_pas" db:"monto_comision_pas"`
	Reminder           string     `json:"recordatorio" db:"recordatorio"`
	NoteLog            []CaseNote `json:"notas_log" db:"notas_log"`
}

// Validation errors for case edits.
var (
	ErrEmptyInsured   = errors.New("insured name is required")
	ErrUnknownStatus  = errors.New("unknown case status")
	ErrNegativeAmount = errors.New("monetary amounts cannot be negative")
)

// Validate checks the invariants a case must satisfy before it can be
// saved. An empty insured name makes the save inert upstream; this is the
// authoritative check behind that.
func (c Case) Validate() error {
	if strings.TrimSpace(c.Insured) == "" {
		return ErrEmptyInsured
	}
	if !c.Status.Valid() {
		return ErrUnknownStatus
	}
	for _, amt := range []*float64{c.OfferAmount, c.InsuredPayout, c.MyFee, c.PASCommission} {
		if amt != nil && *amt < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// SuggestCommission fills a blank PAS commission with 10% of MyFee,
// rounded to the nearest integer. One-shot: a commission that is already
// set is never overwritten, whatever MyFee becomes later.
func (c *Case) SuggestCommission() {
	if c.MyFee == nil || c.PASCommission != nil {
		return
	}
	suggested := math.Round(*c.MyFee * 0.1)
	c.PASCommission = &suggested
}
