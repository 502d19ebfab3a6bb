package validators

import "go.mongodb.org/mongo-driver/bson"

var MeetingBookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"meeting_slot_id",
			"lead_id",
			"token_id",
			"email",
			"status",
			"confirmation_sent",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"meeting_slot_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"lead_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"token_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},

			"requested_agenda": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"status": bson.M{
				"enum": []string{"PENDING", "CONFIRMED", "CANCELLED", "COMPLETED"},
			},

			"confirmation_sent": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
