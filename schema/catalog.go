package schema

// DefaultCatalog returns the builtin clause catalog. Deployments can extend
// or replace entries with a YAML overlay (see Registry.LoadOverlay).
//
// The transfer clause intentionally ships without a specialized proposal
// skill; it exercises the generic BATNA-verbatim fallback.
func DefaultCatalog() []ClauseSchema {
	return []ClauseSchema{
		{
			Key:   "exclusivity",
			Title: "Exclusivity / No-Shop",
			Fields: []FieldSpec{
				{Name: "period_days", Kind: FieldInteger, Min: 7, Max: 90, Default: 30},
			},
			Template: "The Company shall not solicit competing offers for {{period_days}} days.",
		},
		{
			Key:   "vesting",
			Title: "Founder Vesting",
			Fields: []FieldSpec{
				{Name: "vesting_months", Kind: FieldInteger, Min: 12, Max: 60, Default: 48},
				{Name: "cliff_months", Kind: FieldInteger, Min: 0, Max: 24, Default: 12},
			},
			Template: "Founder shares vest over {{vesting_months}} months with a {{cliff_months}}-month cliff.",
		},
		{
			Key:   "valuation_cap",
			Title: "Valuation Cap",
			Fields: []FieldSpec{
				{Name: "amount_usd", Kind: FieldNumber, Min: 1_000_000, Max: 50_000_000, Default: 8_000_000},
			},
			Template: "Conversion is capped at a ${{amount_usd}} pre-money valuation.",
		},
		{
			Key:   "discount_rate",
			Title: "Conversion Discount",
			Fields: []FieldSpec{
				{Name: "percent", Kind: FieldNumber, Min: 0, Max: 35, Default: 20},
			},
			Template: "Notes convert at a {{percent}}% discount to the next priced round.",
		},
		{
			Key:   "liquidation_preference",
			Title: "Liquidation Preference",
			Fields: []FieldSpec{
				// Sub-1x preference is a hard investor floor.
				{Name: "multiple", Kind: FieldNumber, Min: 1, Max: 3, Default: 1, NonNegotiable: true},
				{Name: "participation", Kind: FieldEnum, Default: "non_participating",
					Allowed: []string{"non_participating", "capped", "full"}, Ordinal: true},
			},
			Template: "{{multiple}}x {{participation}} liquidation preference.",
		},
		{
			Key:   "option_pool",
			Title: "Option Pool",
			Fields: []FieldSpec{
				{Name: "percent", Kind: FieldNumber, Min: 5, Max: 25, Default: 10},
			},
			Template: "A {{percent}}% post-money option pool will be reserved.",
		},
		{
			Key:   "board_seats",
			Title: "Board Composition",
			Fields: []FieldSpec{
				{Name: "investor_seats", Kind: FieldInteger, Min: 0, Max: 2, Default: 1},
				{Name: "observer_rights", Kind: FieldBoolean, Default: true},
			},
			Template: "Investor appoints {{investor_seats}} director(s); observer rights: {{observer_rights}}.",
		},
		{
			Key:   "pro_rata_rights",
			Title: "Pro Rata Rights",
			Fields: []FieldSpec{
				{Name: "enabled", Kind: FieldBoolean, Default: true},
			},
			Template: "Investor holds pro rata rights in subsequent financings: {{enabled}}.",
		},
		{
			Key:   "preemption_rights",
			Title: "Preemption Rights",
			Fields: []FieldSpec{
				{Name: "expiry_next_round_only", Kind: FieldBoolean, Default: false},
			},
			Template: "Preemption rights expire after the next round only: {{expiry_next_round_only}}.",
		},
		{
			Key:   "information_rights",
			Title: "Information Rights",
			Fields: []FieldSpec{
				{Name: "frequency", Kind: FieldEnum, Default: "quarterly",
					Allowed: []string{"annual", "quarterly", "monthly"}, Ordinal: true},
			},
			Template: "The Company delivers {{frequency}} financial statements.",
		},
		{
			Key:   "founder_lockup",
			Title: "Founder Lock-Up",
			Fields: []FieldSpec{
				{Name: "months", Kind: FieldInteger, Min: 0, Max: 36, Default: 12},
			},
			Template: "Founders may not transfer shares for {{months}} months post-closing.",
		},
		{
			Key:   "transfer",
			Title: "Transfer Restrictions",
			Fields: []FieldSpec{
				{Name: "board_approval_required", Kind: FieldBoolean, Default: true},
				{Name: "rofr", Kind: FieldBoolean, Default: true},
			},
			Template: "Share transfers require board approval ({{board_approval_required}}) and are subject to a right of first refusal ({{rofr}}).",
		},
	}
}
