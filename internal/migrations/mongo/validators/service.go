package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "duration_minutes", "status", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":              bson.M{"bsonType": "objectId"},
			"name":             bson.M{"bsonType": "string", "maxLength": 200},
			"duration_minutes": bson.M{"bsonType": []string{"int", "long"}, "minimum": 5, "maximum": 480},
			"price":            bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0},
			"category":         bson.M{"bsonType": "string"},
			"features": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
			"status":     bson.M{"bsonType": "string", "enum": []string{"active", "inactive"}},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
