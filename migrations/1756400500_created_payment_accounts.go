package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("payment_accounts")
		collection.Fields.Add(
			&core.RelationField{Name: "user", Required: true, CollectionId: users.Id, MaxSelect: 1},
			&core.SelectField{
				Name:      "provider",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"stripepay", "paystack"},
			},
			&core.TextField{Name: "account_id", Required: true, Max: 255},
			&core.TextField{Name: "wallet_id", Max: 255},
			&core.BoolField{Name: "onboarded"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_payment_accounts_user", true, "`user`", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("payment_accounts")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
