package validators

import "go.mongodb.org/mongo-driver/bson"

// Monetary fields are stored as decimal strings, not doubles, so quoting
// math never inherits float rounding from the storage layer.
var ProductPricingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"product_id",
			"duration_type",
			"base_price",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"product_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
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

			"discount_percent": bson.M{
				"bsonType": "string",
			},

			"min_duration": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"max_duration": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
