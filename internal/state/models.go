package state

// Cycle row statuses.
const (
	CycleRequested = "requested"
	CycleActive    = "active"
	CycleError     = "error"
)

// Invoice row statuses.
const (
	InvoiceIssuedLocal = "issued_local"
	InvoiceInformed    = "informed"
	InvoiceError       = "error"
)

// Outbox job types and statuses.
const (
	JobSolicitCaea        = "SOLICIT_CAEA"
	JobInformCaeaMovement = "INFORM_CAEA_MOVEMENT"

	JobPending    = "pending"
	JobProcessing = "processing"
	JobRetrying   = "retrying"
	JobDone       = "done"
	JobFailed     = "failed"
)

// Rows marshal with their column names; queue endpoints return them verbatim.

type Cycle struct {
	ID        int64   `db:"id" json:"id"`
	Cuit      int64   `db:"cuit" json:"cuit"`
	Periodo   int     `db:"periodo" json:"periodo"`
	Orden     int     `db:"orden" json:"orden"`
	CaeaCode  *string `db:"caea_code" json:"caea_code"`
	Status    string  `db:"status" json:"status"`
	CreatedAt string  `db:"created_at" json:"created_at"`
	UpdatedAt string  `db:"updated_at" json:"updated_at"`
	LastError *string `db:"last_error" json:"last_error"`
}

// ActiveCode returns the CAEA code when the cycle is usable for local issue.
func (c *Cycle) ActiveCode() (string, bool) {
	if c == nil || c.Status != CycleActive || c.CaeaCode == nil || *c.CaeaCode == "" {
		return "", false
	}
	return *c.CaeaCode, true
}

type Invoice struct {
	ID          int64   `db:"id" json:"id"`
	CycleID     int64   `db:"cycle_id" json:"cycle_id"`
	Cuit        int64   `db:"cuit" json:"cuit"`
	PtoVta      int     `db:"pto_vta" json:"pto_vta"`
	CbteTipo    int     `db:"cbte_tipo" json:"cbte_tipo"`
	CbteNro     int64   `db:"cbte_nro" json:"cbte_nro"`
	PayloadJSON string  `db:"payload_json" json:"payload_json"`
	Status      string  `db:"status" json:"status"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at"`
	LastError   *string `db:"last_error" json:"last_error"`
}

type OutboxJob struct {
	ID               int64   `db:"id" json:"id"`
	JobType          string  `db:"job_type" json:"job_type"`
	IdempotencyKey   string  `db:"idempotency_key" json:"idempotency_key"`
	PayloadJSON      string  `db:"payload_json" json:"payload_json"`
	Status           string  `db:"status" json:"status"`
	Attempts         int     `db:"attempts" json:"attempts"`
	NextRetryAt      string  `db:"next_retry_at" json:"next_retry_at"`
	CreatedAt        string  `db:"created_at" json:"created_at"`
	UpdatedAt        string  `db:"updated_at" json:"updated_at"`
	LastError        *string `db:"last_error" json:"last_error"`
	LastResponseJSON *string `db:"last_response_json" json:"last_response_json"`
}

// Live reports whether the job still has work ahead of it.
func (j *OutboxJob) Live() bool {
	switch j.Status {
	case JobPending, JobRetrying, JobProcessing:
		return true
	}
	return false
}

// Assignment is one row of the CAEA assignment view: which numbering ranges
// were consumed under which code, and how far the informing got.
type Assignment struct {
	CycleID            int64   `db:"cycle_id" json:"cycle_id"`
	Cuit               int64   `db:"cuit" json:"cuit"`
	Periodo            int     `db:"periodo" json:"periodo"`
	Orden              int     `db:"orden" json:"orden"`
	CaeaCode           *string `db:"caea_code" json:"caea_code"`
	PtoVta             int     `db:"pto_vta" json:"pto_vta"`
	CbteTipo           int     `db:"cbte_tipo" json:"cbte_tipo"`
	InvoicesCount      int64   `db:"invoices_count" json:"invoices_count"`
	CbteFrom           int64   `db:"cbte_from" json:"cbte_from"`
	CbteTo             int64   `db:"cbte_to" json:"cbte_to"`
	InformedCount      int64   `db:"informed_count" json:"informed_count"`
	PendingInformCount int64   `db:"pending_inform_count" json:"pending_inform_count"`
	ErrorCount         int64   `db:"error_count" json:"error_count"`
}
