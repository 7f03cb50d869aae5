package github

import "strings"

// Extensions of binary, archive or generated formats that are never
// worth embedding.
var ignoredExtensions = []string{
	"bpg", "eps", "pcx", "ppm", "tga", "tiff", "wmf", "xpm", "svg", "ttf",
	"woff2", "fnt", "fon", "otf", "pdf", "ps", "dot", "docx", "dotx", "xls",
	"xlsx", "xlt", "lock", "odt", "ott", "ods", "ots", "dvi", "pcl", "jar",
	"pyc", "war", "ear", "bz2", "xz", "rpm", "coff", "obj", "dll", "class",
	"log",
}

// Directories that hold dependencies or build output.
var ignoredDirectories = []string{
	"vendor", "dist", "build", "target", "bin", "obj", "node_modules", "debug",
}

// Licenses that permit indexing a public repository.
var allowedLicenses = []string{
	"0bsd", "apache-2.0", "bsd-2-clause", "bsd-3-clause", "bsd-3-clause-clear",
	"bsd-4-clause", "isc", "mit", "unlicense", "wtfpl", "zlib",
}

// ShouldIndex reports whether a repository file path passes the
// extension and directory denylists.
func ShouldIndex(path string) bool {
	for _, ext := range ignoredExtensions {
		if strings.HasSuffix(path, "."+ext) {
			return false
		}
	}
	for _, segment := range strings.Split(path, "/") {
		for _, dir := range ignoredDirectories {
			if segment == dir {
				return false
			}
		}
	}
	return true
}
