package ignore

// DefaultIgnorePatterns contains patterns that are always skipped during ingestion.
// Plain names match any path component; glob patterns match the base name or the relative path.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Dependencies and build output
	"node_modules",
	"vendor",
	"bower_components",
	"dist",
	"build",
	"target",
	"site-packages",
	"_site",

	// IDE / Editor
	".idea",
	".vscode",
	".vs",
	"*.swp",
	"*.swo",
	"*~",

	// Office and LibreOffice lock files
	"~$*",
	".~lock.*#",

	// Temporary files
	"*.tmp",
	"*.bak",
	"*.part",
	"*.crdownload",

	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	".Trash",
	".Trashes",
	"$RECYCLE.BIN",

	// Note-taking app state
	".obsidian",
	".logseq",

	// Python environments
	"__pycache__",
	".venv",
	"venv",
	".env",

	// Coverage and caches
	"coverage",
	"htmlcov",
	".cache",
	".next",

	// Logs
	"*.log",

	// docindex's own data
	"*.bleve",
	"*.sqlite",
	"*.sqlite3",
	"*.db",
}
