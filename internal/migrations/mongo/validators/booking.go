package validators

import "go.mongodb.org/mongo-driver/bson"

// The status enum deliberately excludes "late": lateness is derived from
// end_time on reads and never persisted.
var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"product_id",
			"status",
			"quantity",
			"start_time",
			"end_time",
			"duration_type",
			"base_price",
			"total_amount",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"product_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"reserved",
					"confirmed",
					"active",
					"returned",
					"cancelled",
				},
			},

			"quantity": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"actual_return_time": bson.M{
				"bsonType": "date",
			},

			"duration_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"hourly",
					"daily",
					"weekly",
					"monthly",
				},
			},

			"base_price": bson.M{
				"bsonType": "string",
			},

			"discount": bson.M{
				"bsonType": "string",
			},

			"service_fee": bson.M{
				"bsonType": "string",
			},

			"late_fee": bson.M{
				"bsonType": "string",
			},

			"total_amount": bson.M{
				"bsonType": "string",
			},

			"payment_ref": bson.M{
				"bsonType":  "string",
				"maxLength": 128,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
