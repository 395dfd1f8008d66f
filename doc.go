/*
Package hwcov provides functional coverage collection for hardware
verification testbenches written in Go.

A coverage model is owned by a Context. It is made of scopes holding
covergroup instances. A covergroup samples a set of coverpoints, each
classifying integer values into bins, and crosses recording which
combinations of coverpoint bins were hit together.

Bins come in three kinds. A value in an ignore bin is never counted. A value
in an illegal bin is counted and reported as an error. Regular bins count
towards coverage. Bin arrays split a range into evenly sized bins or create
one bin per value or interval.

Covergroup types can be described at run time with a Template. Instances of a
template share its bins but get their own counters, and can be disabled.

Coverage is computed the same way at every level of the model: a weighted
average of the children, reported as 100 once it reaches the goal. The whole
model can be walked with a Visitor, which is how the ucis and report packages
produce their output.

Once a context is closed, every handle obtained from it fails with
ErrDataDeleted.

*/
package hwcov
