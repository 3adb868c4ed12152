package validators

import "go.mongodb.org/mongo-driver/bson"

var ClassValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"start_date",
			"end_date",
			"start_time",
			"duration_min",
			"capacity",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"start_date": bson.M{
				"bsonType": "date",
			},

			"end_date": bson.M{
				"bsonType": "date",
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"duration_min": bson.M{
				"bsonType": "int",
				"minimum":  10,
				"maximum":  480,
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  200,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
