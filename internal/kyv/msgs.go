package kyv

import "encoding/json"

// Query messages. Each marshals to {"<tag>": {...}}.

type emptyMsg struct{}

type getStateQuery struct {
	GetState emptyMsg `json:"get_state"`
}

type getCurrentStateQuery struct {
	GetCurrentState emptyMsg `json:"get_current_state"`
}

type getConfigQuery struct {
	GetConfig emptyMsg `json:"get_config"`
}

type getAllTimestampsQuery struct {
	GetAllTimestamps emptyMsg `json:"get_all_timestamps"`
}

type getHistoryByTimeQuery struct {
	GetHistoryByTime struct {
		Timestamp uint64 `json:"timestamp"`
	} `json:"get_history_by_time"`
}

type getAprByValidatorQuery struct {
	GetAprByValidator struct {
		Timestamp1 uint64 `json:"timestamp1"`
		Timestamp2 uint64 `json:"timestamp2"`
		Addr       string `json:"addr"`
	} `json:"get_apr_by_validator"`
}

type getAllAprsByIntervalQuery struct {
	GetAllAprsByInterval struct {
		Timestamp1 uint64 `json:"timestamp1"`
		Timestamp2 uint64 `json:"timestamp2"`
		From       uint64 `json:"from"`
		To         uint64 `json:"to"`
	} `json:"get_all_aprs_by_interval"`
}

type getAllValidatorMetricsQuery struct {
	GetAllValidatorMetrics struct {
		Addr string `json:"addr"`
	} `json:"get_all_validator_metrics"`
}

type getValidatorMetricsBtwTimestampsQuery struct {
	GetValidatorMetricsBtwTimestamps struct {
		Addr       string `json:"addr"`
		Timestamp1 uint64 `json:"timestamp1"`
		Timestamp2 uint64 `json:"timestamp2"`
	} `json:"get_validator_metrics_btw_timestamps"`
}

type getValidatorMetricsByTimestampQuery struct {
	GetValidatorMetricsByTimestamp struct {
		Timestamp uint64 `json:"timestamp"`
		Addr      string `json:"addr"`
	} `json:"get_validator_metrics_by_timestamp"`
}

type getValidatorsMetricsByTimestampQuery struct {
	GetValidatorsMetricsByTimestamp struct {
		Timestamp uint64 `json:"timestamp"`
		From      uint64 `json:"from"`
		To        uint64 `json:"to"`
	} `json:"get_validators_metrics_by_timestamp"`
}

// stateValidators is the part of get_state needed to size a full page.
type stateValidators struct {
	Validators []json.RawMessage `json:"validators"`
}

// validatorAprResponse is what the contract returns per validator.
type validatorAprResponse struct {
	Addr string `json:"addr"`
	APR  string `json:"apr"`
}

// Execute messages.

type addValidatorMsg struct {
	AddValidator struct {
		Addr string `json:"addr"`
	} `json:"add_validator"`
}

type recordMetricsMsg struct {
	RecordMetrics struct {
		Timestamp uint64 `json:"timestamp"`
	} `json:"record_metrics"`
}

type updateRecordsPerRunMsg struct {
	UpdateRecordsToUpdatePerRun struct {
		No uint64 `json:"no"`
	} `json:"update_records_to_update_per_run"`
}

type removeValidatorMsg struct {
	RemoveValidator struct {
		ValidatorOperAddr string `json:"validator_oper_addr"`
	} `json:"remove_validator"`
}

type updateConfigMsg struct {
	UpdateConfig struct {
		BatchSize uint64 `json:"batch_size"`
	} `json:"update_config"`
}
