// Package sketch defines the declarative control script of a sketch: the
// entries of the script, the kinds of controls they declare, their bounds
// and the tagged values the controls hold. The evaluation engine is in the
// hub package.
package sketch
