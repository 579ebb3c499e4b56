package reconcile

import (
	"errors"
	"fmt"
	"scrapesync-backend/internal/fetcher"
	"scrapesync-backend/internal/store"
	"strconv"
	"strings"
	"unicode"
)

var ErrMalformedRow = errors.New("malformed row")

// lookup returns the first non-empty value among the given column names,
// table sources prefix some columns with the record kind.
func lookup(row fetcher.Row, keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(row[key])
		if value != "" {
			return value
		}
	}
	return ""
}

func remoteID(row fetcher.Row) (int64, error) {
	raw := lookup(row, "id")
	if raw == "" {
		return 0, fmt.Errorf("%w: missing id", ErrMalformedRow)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q: %s", ErrMalformedRow, raw, err.Error())
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: id %d is not positive", ErrMalformedRow, id)
	}
	return id, nil
}

func decodeUser(row fetcher.Row) (int64, store.NewUser, error) {
	id, err := remoteID(row)
	if err != nil {
		return 0, store.NewUser{}, err
	}
	return id, store.NewUser{
		Name:  lookup(row, "name"),
		Email: lookup(row, "email"),
		Phone: lookup(row, "phone"),
	}, nil
}

func decodeAddress(row fetcher.Row) (int64, store.NewAddress, error) {
	id, err := remoteID(row)
	if err != nil {
		return 0, store.NewAddress{}, err
	}
	return id, store.NewAddress{
		StreetAddress: lookup(row, "street_address", "address_street_address"),
		City:          lookup(row, "city", "address_city"),
		Country:       lookup(row, "country", "address_country"),
	}, nil
}

// cardNumber keeps only the digits of a card number, so both
// "1228-1221-1221-1431" and "1228122112211431" are accepted.
func cardNumber(raw string) (int64, error) {
	digits := strings.Builder{}
	for _, c := range raw {
		if unicode.IsDigit(c) {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("%w: card number %q has no digits", ErrMalformedRow, raw)
	}
	number, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: card number %q: %s", ErrMalformedRow, raw, err.Error())
	}
	return number, nil
}

func decodeCreditCard(row fetcher.Row) (int64, store.NewCreditCard, error) {
	id, err := remoteID(row)
	if err != nil {
		return 0, store.NewCreditCard{}, err
	}
	number, err := cardNumber(lookup(row, "card_number", "credit_card_number"))
	if err != nil {
		return 0, store.NewCreditCard{}, err
	}
	return id, store.NewCreditCard{
		CardNumber:     number,
		CardExpiryDate: lookup(row, "card_expiry_date", "credit_card_expiry_date"),
		CardType:       lookup(row, "card_type", "credit_card_type"),
	}, nil
}
