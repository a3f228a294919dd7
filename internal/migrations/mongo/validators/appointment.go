package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"patient",
			"patient_email",
			"doctor_id",
			"appointment_date",
			"appointment_time",
			"status",
			"slot_active",
			"reason",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"patient": bson.M{
				"bsonType": "object",
				"required": []string{"email"},
			},

			"patient_email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
			},

			"doctor_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"service_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"appointment_date": bson.M{
				"bsonType": "date",
			},

			"appointment_time": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"duration": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  5,
				"maximum":  480,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
					"cancelled",
					"no-show",
				},
			},

			"slot_active": bson.M{
				"bsonType": "bool",
			},

			"reason": bson.M{
				"bsonType":  "string",
				"minLength": 5,
				"maxLength": 1000,
			},

			"priority": bson.M{
				"bsonType": "string",
				"enum":     []string{"low", "medium", "high", "urgent"},
			},

			"reminders": bson.M{
				"bsonType": "array",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
