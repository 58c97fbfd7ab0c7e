package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		reservations, err := app.FindCollectionByNameOrId("reservations")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("checkout_sessions")
		collection.Fields.Add(
			&core.TextField{Name: "session_id", Required: true, Max: 255},
			&core.SelectField{
				Name:      "provider",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"stripepay", "paystack"},
			},
			&core.RelationField{Name: "event", Required: true, CollectionId: events.Id, MaxSelect: 1},
			&core.RelationField{Name: "user", Required: true, CollectionId: users.Id, MaxSelect: 1},
			&core.RelationField{Name: "reservation", Required: true, CollectionId: reservations.Id, MaxSelect: 1},
			&core.NumberField{Name: "price", Min: types.Pointer(0.0)},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		collection.AddIndex("idx_checkout_sessions_sid_provider", true, "`session_id`, `provider`", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("checkout_sessions")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
