package datasets

import "github.com/JonMunkholm/ingest/internal/core"

func init() {
	registerDeposits()
	registerArrangements()
}

var (
	depositTypes       = []string{"DEMAND", "SAVINGS", "TIME", "NOTICE"}
	depositStatuses    = []string{"ACTIVE", "DORMANT", "CLOSED", "BLOCKED"}
	rateTypes          = []string{"FIXED", "FLOATING"}
	interestFrequency  = []string{"DAILY", "MONTHLY", "QUARTERLY", "ANNUAL", "MATURITY"}
	channels           = []string{"BRANCH", "ONLINE", "MOBILE", "BROKER"}
	residency          = []string{"RESIDENT", "NONRESIDENT"}
	yesNo              = []string{"Y", "N"}
	arrangementStatus  = []string{"ACTIVE", "CLOSED", "PENDING"}
	arrangementPurpose = []string{"OPERATING", "SAVINGS", "ESCROW", "COLLATERAL"}
)

// registerDeposits registers the wide daily deposit balance extract. The
// core banking export is pipe-delimited with no quoting and a fixed header.
func registerDeposits() {
	core.Register(core.Dataset{
		Key:        "deposits",
		Group:      GroupDeposits,
		Label:      "Deposit Balances",
		Table:      "deposits",
		HeaderMode: core.HeaderStrict,
		Delimiter:  '|',
		Columns: []core.Column{
			{Name: "deposit_id", Kind: core.KindText, Required: true},
			{Name: "account_id", Kind: core.KindText, Required: true},
			{Name: "customer_id", Kind: core.KindText, Required: true},
			{Name: "branch_code", Kind: core.KindText},
			{Name: "product_code", Kind: core.KindText, Required: true},
			{Name: "deposit_type", Kind: core.KindEnum, Required: true, Allowed: depositTypes},
			{Name: "status", Kind: core.KindEnum, Required: true, Allowed: depositStatuses},
			{Name: "currency", Kind: core.KindText, Required: true},
			{Name: "balance", Kind: core.KindDecimal, Required: true},
			{Name: "available_balance", Kind: core.KindDecimal},
			{Name: "blocked_amount", Kind: core.KindDecimal},
			{Name: "accrued_interest", Kind: core.KindDecimal},
			{Name: "balance_lcy", Kind: core.KindDecimal},
			{Name: "interest_rate", Kind: core.KindDecimal},
			{Name: "rate_type", Kind: core.KindEnum, Allowed: rateTypes},
			{Name: "interest_frequency", Kind: core.KindEnum, Allowed: interestFrequency},
			{Name: "open_date", Kind: core.KindDate8, Required: true},
			{Name: "value_date", Kind: core.KindDate8},
			{Name: "maturity_date", Kind: core.KindDate8},
			{Name: "last_transaction_date", Kind: core.KindDate8},
			{Name: "close_date", Kind: core.KindDate8},
			{Name: "term_months", Kind: core.KindDecimal},
			{Name: "notice_days", Kind: core.KindDecimal},
			{Name: "channel", Kind: core.KindEnum, Allowed: channels},
			{Name: "residency", Kind: core.KindEnum, Allowed: residency},
			{Name: "insured_flag", Kind: core.KindEnum, Allowed: yesNo},
			{Name: "collateral_flag", Kind: core.KindEnum, Allowed: yesNo},
			{Name: "officer_code", Kind: core.KindText},
			{Name: "segment", Kind: core.KindText},
			{Name: "created_at", Kind: core.KindDate10},
			{Name: "extracted_at", Kind: core.KindDate10, Required: true},
		},
		CategoryColumn: "product_code",
		KeyColumn:      "deposit_id",
	})
}

// registerArrangements registers the arrangement extract. Upstream adds
// columns between releases, so only the required columns are checked.
func registerArrangements() {
	core.Register(core.Dataset{
		Key:        "arrangements",
		Group:      GroupDeposits,
		Label:      "Arrangements",
		Table:      "arrangements",
		HeaderMode: core.HeaderRequiredSubset,
		Delimiter:  '|',
		Quote:      '"',
		Columns: []core.Column{
			{Name: "arrangement_id", Kind: core.KindText, Required: true},
			{Name: "account_id", Kind: core.KindDecimal, Required: true},
			{Name: "currency", Kind: core.KindText, Required: true},
			{Name: "customer_id", Kind: core.KindText},
			{Name: "product_code", Kind: core.KindText},
			{Name: "status", Kind: core.KindEnum, Allowed: arrangementStatus},
			{Name: "purpose", Kind: core.KindEnum, Allowed: arrangementPurpose},
			{Name: "limit_amount", Kind: core.KindDecimal},
			{Name: "start_date", Kind: core.KindDate8},
			{Name: "end_date", Kind: core.KindDate8},
			{Name: "description", Kind: core.KindText},
			{Name: "updated_at", Kind: core.KindDate10},
		},
		CategoryColumn: "product_code",
		KeyColumn:      "arrangement_id",
	})
}
