package validators

import "go.mongodb.org/mongo-driver/bson"

var LeadValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"lead_type", "company_name", "contact_name", "email", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":          bson.M{"bsonType": "objectId"},
			"lead_type":    bson.M{"enum": []string{"CONTACT", "LIBRARY_LEAD", "EVENT_REGISTRATION", "DEMO_REQUEST"}},
			"company_name": bson.M{"bsonType": "string", "maxLength": 200},
			"contact_name": bson.M{"bsonType": "string", "maxLength": 100},
			"email":        bson.M{"bsonType": "string", "maxLength": 254},
			"phone":        bson.M{"bsonType": "string"},
			"created_at":   bson.M{"bsonType": "date"},
		},
	},
}

var LeadActivityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"event_id", "lead_id", "activity_type", "occurred_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"event_id": bson.M{"bsonType": "string"},
			"lead_id":  bson.M{"bsonType": "string"},
			"activity_type": bson.M{
				"enum": []string{"MEETING_PROPOSED", "MEETING_BOOKED", "EMAIL_SENT", "BOOKING_STATUS_CHANGED"},
			},
			"metadata":    bson.M{"bsonType": "object"},
			"occurred_at": bson.M{"bsonType": "date"},
		},
	},
}
