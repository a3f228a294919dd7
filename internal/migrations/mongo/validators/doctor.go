package validators

import "go.mongodb.org/mongo-driver/bson"

var DoctorValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"first_name", "last_name", "email", "password", "specialization", "status", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":              bson.M{"bsonType": "objectId"},
			"first_name":       bson.M{"bsonType": "string"},
			"last_name":        bson.M{"bsonType": "string"},
			"email":            bson.M{"bsonType": "string"},
			"password":         bson.M{"bsonType": "string"},
			"specialization":   bson.M{"bsonType": "string"},
			"experience_years": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"consultation_fee": bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0},
			"available_days": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
					"enum":     []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
				},
			},
			"available_hours": bson.M{"bsonType": "object"},
			"status":          bson.M{"bsonType": "string", "enum": []string{"active", "inactive"}},
			"role":            bson.M{"bsonType": "string"},
			"created_at":      bson.M{"bsonType": "date"},
		},
	},
}
