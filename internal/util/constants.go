package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV  = "text/csv; charset=utf-8"
	MimeJSON = "application/json"
)

// Download file names
const (
	TabularFileBase   = "SAD_QDRT_Completed"
	InterchangeFile   = "qdrt_answers.json"
	CorpusStateSuffix = "docText"
	AnswerStateSuffix = "answers"
)
