package store

import (
	"fmt"
	"scrapesync-backend/internal/db"
)

// Ptr returns a pointer to v, it is a convenience for filling patches.
func Ptr[T any](v T) *T {
	return &v
}

func optionalID(id *int64) db.NullID {
	if id == nil || *id == 0 {
		return db.NullID{}
	}
	return db.SomeID(*id)
}

// The New types describe records to insert. A zero ID lets the store
// assign one, any other ID is kept as the record's identifier.

type NewUser struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	AddressID *int64
}

type NewAddress struct {
	ID            int64
	StreetAddress string
	City          string
	Country       string
}

func (a NewAddress) validate() error {
	if a.StreetAddress == "" || a.City == "" || a.Country == "" {
		return fmt.Errorf("%w: address requires street address, city and country", ErrInvalidRecord)
	}
	return nil
}

type NewCreditCard struct {
	ID             int64
	CardNumber     int64
	CardExpiryDate string
	CardType       string
	UserID         *int64
	AddressID      *int64
}

func (c NewCreditCard) validate() error {
	if c.CardNumber == 0 {
		return fmt.Errorf("%w: credit card requires a card number", ErrInvalidRecord)
	}
	if c.CardExpiryDate == "" || c.CardType == "" {
		return fmt.Errorf("%w: credit card requires an expiry date and a type", ErrInvalidRecord)
	}
	return nil
}

// The patch types describe partial updates. A nil field, an empty string
// or a zero number leaves the stored value untouched.

type UserPatch struct {
	Name      *string
	Email     *string
	Phone     *string
	AddressID *int64
}

func (p UserPatch) apply(u *db.User) {
	setString(&u.Name, p.Name)
	setString(&u.Email, p.Email)
	setString(&u.Phone, p.Phone)
	setID(&u.AddressID, p.AddressID)
}

type AddressPatch struct {
	StreetAddress *string
	City          *string
	Country       *string
}

func (p AddressPatch) apply(a *db.Address) {
	setString(&a.StreetAddress, p.StreetAddress)
	setString(&a.City, p.City)
	setString(&a.Country, p.Country)
}

type CreditCardPatch struct {
	CardNumber     *int64
	CardExpiryDate *string
	CardType       *string
	UserID         *int64
	AddressID      *int64
}

func (p CreditCardPatch) apply(c *db.CreditCard) {
	if p.CardNumber != nil && *p.CardNumber != 0 {
		c.CardNumber = *p.CardNumber
	}
	setString(&c.CardExpiryDate, p.CardExpiryDate)
	setString(&c.CardType, p.CardType)
	setID(&c.UserID, p.UserID)
	setID(&c.AddressID, p.AddressID)
}

func setString(dst *string, value *string) {
	if value != nil && *value != "" {
		*dst = *value
	}
}

func setID(dst *db.NullID, value *int64) {
	if value != nil && *value != 0 {
		*dst = db.SomeID(*value)
	}
}
