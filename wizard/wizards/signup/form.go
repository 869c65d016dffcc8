package signup

import (
	"tenderdesk/entity"
	"tenderdesk/wizard"
)

// Field keys
const (
	FieldAccountType  = "accountType"
	FieldFullName     = "fullName"
	FieldCompanyName  = "companyName"
	FieldEmail        = "email"
	FieldCountryCode  = "countryCode"
	FieldPhone        = "phone"
	FieldPassword     = "password"
	FieldDateOfBirth  = "dateOfBirth"
	FieldAgreeToTerms = "agreeToTerms"
)

var fields = []string{
	FieldAccountType,
	FieldFullName,
	FieldCompanyName,
	FieldEmail,
	FieldCountryCode,
	FieldPhone,
	FieldPassword,
	FieldDateOfBirth,
	FieldAgreeToTerms,
}

// Form holds the sign up answers.
type Form struct {
	AccountType  entity.UserType
	FullName     string
	CompanyName  string
	Email        string
	CountryCode  string
	Phone        string
	Password     string
	DateOfBirth  string
	AgreeToTerms bool
}

func (f *Form) Fields() []string {
	return fields
}

func (f *Form) Set(field string, value any) error {
	if field == FieldAgreeToTerms {
		b, ok := value.(bool)
		if !ok {
			return wizard.InvalidValue(field, value)
		}
		f.AgreeToTerms = b
		return nil
	}

	s, ok := value.(string)
	if !ok {
		return wizard.InvalidValue(field, value)
	}
	switch field {
	case FieldAccountType:
		f.AccountType = entity.UserType(s)
	case FieldFullName:
		f.FullName = s
	case FieldCompanyName:
		f.CompanyName = s
	case FieldEmail:
		f.Email = s
	case FieldCountryCode:
		f.CountryCode = s
	case FieldPhone:
		f.Phone = s
	case FieldPassword:
		f.Password = s
	case FieldDateOfBirth:
		f.DateOfBirth = s
	default:
		return wizard.UnknownField(field)
	}
	return nil
}

// Values leaves the password out.
func (f *Form) Values() map[string]any {
	return map[string]any{
		FieldAccountType:  string(f.AccountType),
		FieldFullName:     f.FullName,
		FieldCompanyName:  f.CompanyName,
		FieldEmail:        f.Email,
		FieldCountryCode:  f.CountryCode,
		FieldPhone:        f.Phone,
		FieldDateOfBirth:  f.DateOfBirth,
		FieldAgreeToTerms: f.AgreeToTerms,
	}
}

func (f *Form) Clone() *Form {
	c := *f
	return &c
}

func (f *Form) isBusiness() bool {
	return f.AccountType == entity.UserBusiness
}
