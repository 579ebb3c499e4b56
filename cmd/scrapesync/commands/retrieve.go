package commands

import (
	"io"
	"scrapesync-backend/cmd/scrapesync/utils"
	"scrapesync-backend/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
)

func printSnapshot(out io.Writer, snapshot store.Snapshot) {
	users := utils.NewTable(out)
	users.AppendHeader(table.Row{"ID", "NAME", "EMAIL", "PHONE", "ADDRESS ID"})
	for _, u := range snapshot.Users {
		users.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Phone, u.AddressID.String()})
	}
	users.Render()

	addresses := utils.NewTable(out)
	addresses.AppendHeader(table.Row{"ID", "STREET ADDRESS", "CITY", "COUNTRY"})
	for _, a := range snapshot.Addresses {
		addresses.AppendRow(table.Row{a.ID, a.StreetAddress, a.City, a.Country})
	}
	addresses.Render()

	cards := utils.NewTable(out)
	cards.AppendHeader(table.Row{"ID", "CARD NUMBER", "CARD EXP DATE", "CARD TYPE", "USER ID", "ADDRESS ID"})
	for _, c := range snapshot.CreditCards {
		cards.AppendRow(table.Row{
			c.ID,
			c.CardNumber,
			c.CardExpiryDate,
			c.CardType,
			c.UserID.String(),
			c.AddressID.String(),
		})
	}
	cards.Render()
}
