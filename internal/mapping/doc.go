// Package mapping provides the map document definitions, parsing and
// load-time checks.
//
// A map document is a human-reviewed, data-only description of how the
// answers of an intake form land in a clinical resource. It is loaded once
// and never mutated; the engine compiles it into its own immutable plan.
//
// # Document Overview
//
//	version: "1"
//	name: patient-intake
//	headersStructure:
//	  - key: patient
//	    type: object
//	    id: patient
//	    children:
//	      - key: gender
//	        type: leaf
//	        id: patient.gender
//	map:
//	  headers:
//	    patient.gender:
//	      headerPath: [patient, gender]
//	      targetPath:
//	        - {linkid: Patient, text: Patient}
//	        - {linkid: Patient.gender, text: Gender, required: true}
//	      valueType: choice
//	      choiceMap:
//	        male: {code: male, valueType: coding}
//	  constants:
//	    identifier-system:
//	      code: System 123
//	      display: System 123
//	      valueType: string
//	      targetPath:
//	        - {linkid: Patient, text: Patient}
//	        - {linkid: Patient.identifier[0], text: Identifier}
//	        - {linkid: Patient.identifier[0].system, text: System}
//	  assertions:
//	    - key: patient-present
//	      expression: item.where(linkId = 'Patient').exists()
//
// JSON documents with the same structure are accepted as well.
//
// # Ordering
//
// headers, constants and choiceMap are mappings in the file but are decoded
// in declaration order: the order of siblings in the emitted document follows
// the order in which their fields were declared.
//
// # Address Syntax
//
// Leaf ids and headerPath both address a value in the source answer tree:
//   - Object members: "patient.person"
//   - Array elements: "names[0]"
//   - Mixed: "patient.person.names[0].value"
//
// headerPath is the same address written as a sequence:
// [patient, person, names, 0, value].
package mapping
