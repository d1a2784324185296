package model

// BillingSelection carries the treatment selections that contribute to a
// patient's total charge.
type BillingSelection struct {
	CareType          string
	SessionCount      int
	SessionPrice      int
	NeedsMedicalAids  bool
	AidPrice          int
	HasOtherServices  bool
	OtherServicePrice int
}

// ComputeTotalAmount derives the total charge from the treatment selections.
// Sessions are billed per session, medical aids and other services at their
// listed price. Home exercises, surgery and diet plans are non-billed
// services and contribute nothing. Negative inputs are rejected by field
// validation upstream, not here.
func ComputeTotalAmount(s BillingSelection) int {
	total := 0
	if s.CareType == CareTypeSessions {
		total += s.SessionCount * s.SessionPrice
	}
	if s.NeedsMedicalAids {
		total += s.AidPrice
	}
	if s.HasOtherServices {
		total += s.OtherServicePrice
	}
	return total
}

// Billing extracts the patient's current treatment selections.
func (p *Patient) Billing() BillingSelection {
	return BillingSelection{
		CareType:          p.CareType,
		SessionCount:      p.SessionCount,
		SessionPrice:      p.SessionPrice,
		NeedsMedicalAids:  p.NeedsMedicalAids,
		AidPrice:          p.AidPrice,
		HasOtherServices:  p.HasOtherServices,
		OtherServicePrice: p.OtherServicePrice,
	}
}
