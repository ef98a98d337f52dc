// Package mapping defines the declarative mapping configuration that drives
// the IDoc to BYDM transformation, and loads it from JSON or YAML.
//
// # Schema Overview
//
//	{
//	  "mappings": {
//	    "E1KNA1M": {                              // segment (group)
//	      "KUNNR": {                              // leaf rule
//	        "target": "location.0.customerId",
//	        "validation": "NUMBER"
//	      },
//	      "LAND1": {
//	        "target": "location.0.address.country",
//	        "transformation": {"type": "MAP", "values": {"US": "USA"}}
//	      },
//	      "E1KNVKM": {                            // array rule
//	        "target": "location.0.contacts",
//	        "isArray": true,
//	        "mapping": {
//	          "NAME1": {"target": "name", "validation": "TEXT"}
//	        }
//	      },
//	      "E1KNA11": {                            // nested group
//	        "KATR1": {"target": "location.0.attributes.type"}
//	      }
//	    }
//	  }
//	}
//
// Every entry is classified exactly once, when the configuration is loaded:
//
//   - an object with "target" and "isArray": true is an ArrayRule and must
//     carry a "mapping" object whose entries are leaf rules; their targets
//     are relative to the array element
//   - an object with "target" is a LeafRule
//   - an object without "target" is a GroupRule; targets inside it are still
//     absolute paths into the output document
//   - anything else is rejected, or kept as an InvalidRule in lenient mode
//
// Entry order is preserved as written. JSON is read through the YAML decoder
// so both formats share one code path.
package mapping
