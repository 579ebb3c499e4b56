package db

import (
	"database/sql"
	"encoding/json"
	"strconv"
)

const (
	TABLE_USERS        = "users"
	TABLE_ADDRESSES    = "addresses"
	TABLE_CREDIT_CARDS = "credit_cards"
)

// NullID is a nullable reference to another record, it renders as
// null in JSON when it is not valid.
type NullID struct {
	sql.NullInt64
}

func SomeID(id int64) NullID {
	return NullID{sql.NullInt64{Int64: id, Valid: true}}
}

func (n NullID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

func (n *NullID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.Valid = false
		n.Int64 = 0
		return nil
	}
	err := json.Unmarshal(data, &n.Int64)
	if err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// String renders the reference the way the CLI prints it.
func (n NullID) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}

type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	AddressID NullID `json:"address_id"`
}

type Address struct {
	ID            int64  `json:"id"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	Country       string `json:"country"`
}

type CreditCard struct {
	ID             int64  `json:"id"`
	CardNumber     int64  `json:"card_number"`
	CardExpiryDate string `json:"card_expiry_date"`
	CardType       string `json:"card_type"`
	UserID         NullID `json:"user_id"`
	AddressID      NullID `json:"address_id"`
}
