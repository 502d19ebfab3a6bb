package validators

import "go.mongodb.org/mongo-driver/bson"

var MeetingTokenValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"token_hash", "lead_id", "expires_at", "used", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":              bson.M{"bsonType": "objectId"},
			"token_hash":       bson.M{"bsonType": "string", "minLength": 64, "maxLength": 64},
			"lead_id":          bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
			"lead_type":        bson.M{"bsonType": "string"},
			"offered_slot_ids": bson.M{"bsonType": "array", "maxItems": 50, "items": bson.M{"bsonType": "string"}},
			"expires_at":       bson.M{"bsonType": "date"},
			"used":             bson.M{"bsonType": "bool"},
			"used_at":          bson.M{"bsonType": "date"},
			"created_at":       bson.M{"bsonType": "date"},
		},
	},
}
