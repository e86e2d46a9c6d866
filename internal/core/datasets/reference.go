package datasets

import "github.com/JonMunkholm/ingest/internal/core"

func init() {
	registerCurrencyRates()
	registerBranches()
	registerProductCodes()
}

var (
	regions    = []string{"NORTH", "SOUTH", "EAST", "WEST", "CENTRAL"}
	categories = []string{"DEPOSIT", "LOAN", "CARD", "SERVICE"}
)

func registerCurrencyRates() {
	core.Register(core.Dataset{
		Key:        "currency_rates",
		Group:      GroupReference,
		Label:      "Currency Rates",
		Table:      "currency_rates",
		HeaderMode: core.HeaderStrict,
		Delimiter:  '|',
		Quote:      '"',
		Columns: []core.Column{
			{Name: "currency_code", Kind: core.KindText, Required: true},
			{Name: "rate_date", Kind: core.KindDate8, Required: true},
			{Name: "mid_rate", Kind: core.KindDecimal, Required: true},
			{Name: "buy_rate", Kind: core.KindDecimal},
			{Name: "sell_rate", Kind: core.KindDecimal},
			{Name: "source", Kind: core.KindText},
			{Name: "published_at", Kind: core.KindDate10},
		},
		CategoryColumn: "currency_code",
	})
}

// registerBranches registers the branch list. It is maintained by hand in
// spreadsheets, so the delimiter depends on who exported it.
func registerBranches() {
	core.Register(core.Dataset{
		Key:        "branches",
		Group:      GroupReference,
		Label:      "Branches",
		Table:      "branches",
		HeaderMode: core.HeaderStrict,
		Delimiters: []rune{'|', ';', ',', '\t'},
		Quote:      '"',
		Columns: []core.Column{
			{Name: "branch_code", Kind: core.KindText, Required: true},
			{Name: "branch_name", Kind: core.KindText, Required: true},
			{Name: "region", Kind: core.KindEnum, Required: true, Allowed: regions},
			{Name: "city", Kind: core.KindText},
			{Name: "opened_on", Kind: core.KindDate8},
			{Name: "closed_on", Kind: core.KindDate8},
		},
		CategoryColumn: "region",
		KeyColumn:      "branch_code",
	})
}

func registerProductCodes() {
	core.Register(core.Dataset{
		Key:        "product_codes",
		Group:      GroupReference,
		Label:      "Product Codes",
		Table:      "product_codes",
		HeaderMode: core.HeaderStrict,
		Delimiter:  '|',
		Columns: []core.Column{
			{Name: "product_code", Kind: core.KindText, Required: true},
			{Name: "description", Kind: core.KindText, Required: true},
			{Name: "category", Kind: core.KindEnum, Required: true, Allowed: categories},
			{Name: "interest_bearing", Kind: core.KindEnum, Allowed: yesNo},
			{Name: "effective_date", Kind: core.KindDate8},
		},
		CategoryColumn: "category",
		KeyColumn:      "product_code",
	})
}
