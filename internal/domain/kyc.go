package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type KycStatus string

const (
	KycStatusPending  KycStatus = "pending"
	KycStatusInReview KycStatus = "in_review"
	KycStatusApproved KycStatus = "approved"
	KycStatusRejected KycStatus = "rejected"
)

func (s KycStatus) IsValid() bool {
	switch s {
	case KycStatusPending, KycStatusInReview, KycStatusApproved, KycStatusRejected:
		return true
	}
	return false
}

// kycStatusSynonyms maps the vendor's status vocabulary, lower-cased, onto the
// internal enum. The vendor mixes Portuguese and English across payload
// versions; keeping the table exhaustive makes the synonym set auditable.
var kycStatusSynonyms = map[string]KycStatus{
	"approved":  KycStatusApproved,
	"aprovado":  KycStatusApproved,
	"success":   KycStatusApproved,
	"sucesso":   KycStatusApproved,
	"ok":        KycStatusApproved,
	"verified":  KycStatusApproved,
	"completed": KycStatusApproved,
	"concluido": KycStatusApproved,

	"pending":    KycStatusPending,
	"pendente":   KycStatusPending,
	"waiting":    KycStatusPending,
	"aguardando": KycStatusPending,
	"created":    KycStatusPending,

	"in_review":  KycStatusInReview,
	"em_analise": KycStatusInReview,
	"review":     KycStatusInReview,
	"em_revisao": KycStatusInReview,
	"analyzing":  KycStatusInReview,
	"processing": KycStatusInReview,

	"rejected":  KycStatusRejected,
	"rejeitado": KycStatusRejected,
	"failed":    KycStatusRejected,
	"falhou":    KycStatusRejected,
	"reproved":  KycStatusRejected,
	"reprovado": KycStatusRejected,
	"denied":    KycStatusRejected,
}

// ParseKycStatus normalizes a vendor status string. Unrecognized values
// return ok=false; callers must reject the input rather than default it.
func ParseKycStatus(raw string) (KycStatus, bool) {
	s, ok := kycStatusSynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// KycVerification is the audit record for a single verification attempt.
// ProviderRef is the vendor's correlation id; VerifiedAt is set when a
// callback approves and is intentionally never cleared on later regressions.
type KycVerification struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Status      KycStatus
	ProviderRef *string
	VerifiedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
