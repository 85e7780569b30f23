package predictchurnrisk

import "churn-workers/internal/common/validation"

// inputSchema constrains the shape of the job variables. Domain checks on the
// encoded record happen afterwards in churn.FeatureRecord.Validate.
const inputSchema = `{
  "type": "object",
  "anyOf": [
    {"required": ["profile"]},
    {"required": ["features"]}
  ],
  "properties": {
    "customerId": {"type": "string"},
    "profile": {
      "type": "object",
      "required": ["creditScore", "geography", "gender", "age", "tenure", "balance",
                   "numOfProducts", "hasCrCard", "isActiveMember", "estimatedSalary"],
      "properties": {
        "customerId":      {"type": "string"},
        "creditScore":     {"type": "number", "minimum": 0},
        "geography":       {"type": "string", "minLength": 1},
        "gender":          {"type": "string", "minLength": 1},
        "age":             {"type": "number", "minimum": 0},
        "tenure":          {"type": "integer", "minimum": 0, "maximum": 10},
        "balance":         {"type": "number", "minimum": 0},
        "numOfProducts":   {"type": "integer", "minimum": 1, "maximum": 4},
        "hasCrCard":       {"type": "boolean"},
        "isActiveMember":  {"type": "boolean"},
        "estimatedSalary": {"type": "number", "minimum": 0}
      }
    },
    "features": {
      "type": "object",
      "additionalProperties": {"type": "number"}
    }
  }
}`

var inputValidator = validation.MustCompile(inputSchema)
