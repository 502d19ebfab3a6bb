package validators

import "go.mongodb.org/mongo-driver/bson"

var MeetingSlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"title",
			"meeting_type",
			"start_time",
			"end_time",
			"meeting_location",
			"max_bookings",
			"current_bookings",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"meeting_type": bson.M{
				"enum": []string{"DEMO", "CONSULTATION", "ONBOARDING", "FOLLOWUP", "OTHER"},
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"meeting_location": bson.M{
				"enum": []string{"ONLINE", "OFFICE", "CLIENT_OFFICE"},
			},

			"max_bookings": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  50,
			},

			// Never negative, even if a release races a delete.
			"current_bookings": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"status": bson.M{
				"enum": []string{"AVAILABLE", "BOOKED", "BLOCKED"},
			},

			"generated": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
