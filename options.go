// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

// CoverpointOption holds the per instance options of a coverpoint.
//
type CoverpointOption struct {
	// Contribution of the coverpoint to its covergroup coverage. A weight of 0
	// makes a coverpoint without bins count as fully covered.
	Weight uint `yaml:"weight"`
	// Percentage above which coverage is reported as 100.
	Goal uint `yaml:"goal"`
	// Minimum number of hits for a bin to count as covered.
	AtLeast uint64 `yaml:"at_least"`
	Comment string `yaml:"comment"`
	// Maximum number of automatically created bins. See binlib.Auto.
	AutoBinMax uint `yaml:"auto_bin_max"`
	// Report overlapping bins.
	DetectOverlap bool `yaml:"detect_overlap"`
}

// DefaultCoverpointOption returns the default coverpoint options.
//
func DefaultCoverpointOption() CoverpointOption {
	return CoverpointOption{Weight: 1, Goal: 100, AtLeast: 1, AutoBinMax: 10}
}

// CrossOption holds the per instance options of a cross.
//
type CrossOption struct {
	Weight               uint   `yaml:"weight"`
	Goal                 uint   `yaml:"goal"`
	AtLeast              uint64 `yaml:"at_least"`
	Comment              string `yaml:"comment"`
	CrossNumPrintMissing uint   `yaml:"cross_num_print_missing"`
}

// DefaultCrossOption returns the default cross options.
//
func DefaultCrossOption() CrossOption {
	return CrossOption{Weight: 1, Goal: 100, AtLeast: 1}
}

// CovergroupOption holds the per instance options of a covergroup.
//
type CovergroupOption struct {
	Weight               uint   `yaml:"weight"`
	Goal                 uint   `yaml:"goal"`
	AtLeast              uint64 `yaml:"at_least"`
	Comment              string `yaml:"comment"`
	AutoBinMax           uint   `yaml:"auto_bin_max"`
	DetectOverlap        bool   `yaml:"detect_overlap"`
	CrossNumPrintMissing uint   `yaml:"cross_num_print_missing"`
	PerInstance          bool   `yaml:"per_instance"`
}

// DefaultCovergroupOption returns the default covergroup options.
//
func DefaultCovergroupOption() CovergroupOption {
	return CovergroupOption{Weight: 1, Goal: 100, AtLeast: 1, AutoBinMax: 10}
}

// TypeOption holds the options shared by all instances of a covergroup type.
//
type TypeOption struct {
	Weight         uint   `yaml:"weight"`
	Goal           uint   `yaml:"goal"`
	Comment        string `yaml:"comment"`
	MergeInstances bool   `yaml:"merge_instances"`
}

// DefaultTypeOption returns the default covergroup type options.
//
func DefaultTypeOption() TypeOption {
	return TypeOption{Weight: 1, Goal: 100}
}
