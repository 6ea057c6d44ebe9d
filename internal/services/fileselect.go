// Package services defines the interfaces front ends plug into the
// application core.
package services

// SequenceFileExtensions are the file extensions offered by file
// pickers for BLAST input. Selection is advisory; the backend judges
// the actual content.
var SequenceFileExtensions = []string{".fasta", ".fa", ".fna", ".fastq", ".txt"}

// FileSelector obtains an input file path from the user. Select blocks
// until the user picks a file or dismisses the picker; ok is false on
// dismissal, which is not an error. err reports picker failures only.
type FileSelector interface {
	Select() (path string, ok bool, err error)
}
