package config

type WorkerKeyStruct struct {
	ReportRefreshQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ReportRefreshQueue: "report_refresh_queue",
}
