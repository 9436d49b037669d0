package requirement

// Endpoints maps a requirement key to the verification endpoint for that document type
type Endpoints map[string]string

// DefaultEndpoints returns the endpoint table used when none is supplied
func DefaultEndpoints() Endpoints {
	return Endpoints{
		"payslip":   "https://ind-thomas.hyperverge.co/v1/PHLPayslipOCR",
		"coe":       "https://ind-thomas.hyperverge.co/v1/PHLCoeOcr",
		"itr":       "https://ind-thomas.hyperverge.co/v1/PHLItrOcr",
		"cor":       "",
		"pcor":      "",
		"credit":    "https://ind-thomas.hyperverge.co/v1/PHLCreditCardStatementOcr",
		"loan":      "https://ind-thomas.hyperverge.co/v1/PHLLoanStatementOcr",
		"util":      "https://ind-thomas.hyperverge.co/v1/PHLUtilityBillOcr",
		"dti":       "https://ind-thomas.hyperverge.co/v1/PHLBusinessDocsOcr",
		"insurance": "https://ind-thomas.hyperverge.co/v1/PHLInsurancePremiumOcr",
		"bank":      "https://ind-engine.hyperverge.co/v1/PHLBankStatementUpload",
	}
}

// Category groups employment statuses that share an option list
type Category int

const (
	CategoryOther Category = iota
	CategorySelfEmployed
	CategoryEmployed
)

// String returns a string representation of the Category
func (c Category) String() string {
	switch c {
	case CategorySelfEmployed:
		return "self-employed"
	case CategoryEmployed:
		return "employed"
	default:
		return "other"
	}
}

// Employment statuses recognised by CategoryFor
const (
	StatusSelfEmployed       = "Self-Employed / Business Owner"
	StatusEmployedPrivate    = "Employed - Private"
	StatusEmployedGovernment = "Employed - Government"
)

// CategoryPolicy is the option list and default endpoint key of one category
type CategoryPolicy struct {
	Options         string
	DefaultEndpoint string
}

// Policy is the static employment-status lookup
type Policy map[Category]CategoryPolicy

// DefaultPolicy returns the built-in employment policy
func DefaultPolicy() Policy {
	incomeDocs := "itr,Income Tax Return / BIR Form 1701,3,bank,Bank Statements,3,credit,Credit Card Statement,1,loan,Bank Loan Statement,1"
	return Policy{
		CategorySelfEmployed: {
			Options:         incomeDocs,
			DefaultEndpoint: "itr",
		},
		CategoryEmployed: {
			Options:         "payslip,Pay Slip/s (1 month),3,coe,Certificate of Employment,1,bank,Bank Statements,3,credit,Credit Card Statement,1,loan,Bank Loan Statement,1",
			DefaultEndpoint: "payslip",
		},
		CategoryOther: {
			Options:         incomeDocs,
			DefaultEndpoint: "payslip",
		},
	}
}

// CategoryFor classifies an employment status string
func CategoryFor(status string) Category {
	switch status {
	case StatusSelfEmployed:
		return CategorySelfEmployed
	case StatusEmployedPrivate, StatusEmployedGovernment:
		return CategoryEmployed
	default:
		return CategoryOther
	}
}

// OptionsFor returns the option table and default endpoint key for an employment status
func (p Policy) OptionsFor(status string) (Table, string, error) {
	cp, ok := p[CategoryFor(status)]
	if !ok {
		cp = p[CategoryOther]
	}
	table, err := ParseOptions(cp.Options)
	if err != nil {
		return nil, "", err
	}
	return table, cp.DefaultEndpoint, nil
}
