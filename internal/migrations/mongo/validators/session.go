package validators

import "go.mongodb.org/mongo-driver/bson"

var SessionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"class_id",
			"date",
			"start_time",
			"capacity",
			"booked_count",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"class_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  200,
			},

			"booked_count": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
