package validators

import "go.mongodb.org/mongo-driver/bson"

var PatientValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"personal_info", "status", "registration_date", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},
			"personal_info": bson.M{
				"bsonType": "object",
				"required": []string{"first_name", "last_name", "email"},
				"properties": bson.M{
					"first_name": bson.M{"bsonType": "string"},
					"last_name":  bson.M{"bsonType": "string"},
					"email":      bson.M{"bsonType": "string"},
					"phone":      bson.M{"bsonType": "string"},
				},
			},
			"contact_info":      bson.M{"bsonType": "object"},
			"medical_info":      bson.M{"bsonType": "object"},
			"visit_history":     bson.M{"bsonType": "array"},
			"status":            bson.M{"bsonType": "string", "enum": []string{"active", "inactive", "deceased"}},
			"total_visits":      bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"registration_date": bson.M{"bsonType": "date"},
			"created_at":        bson.M{"bsonType": "date"},
		},
	},
}
