package models

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Invoice{},
		&BankTransaction{},
		&Payment{},
		&SplitMatch{},
		&SplitMatchComponent{},
		&MatchAuditLog{},
		&TenantMatchSettings{},
	}
}
