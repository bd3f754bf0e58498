package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/models"
)

// CheckoutState 结算会话状态
type CheckoutState string

const (
	CheckoutStateCollecting CheckoutState = "collecting"
	CheckoutStateValidating CheckoutState = "validating"
	CheckoutStateReady      CheckoutState = "ready"
	CheckoutStateInvalid    CheckoutState = "invalid"
	CheckoutStateSubmitting CheckoutState = "submitting"
	CheckoutStateConfirmed  CheckoutState = "confirmed"
	CheckoutStateFailed     CheckoutState = "failed"
)

const maxCheckoutTransitions = 64

// CheckoutTransition 状态迁移记录
type CheckoutTransition struct {
	From CheckoutState `json:"from"`
	To   CheckoutState `json:"to"`
	At   time.Time     `json:"at"`
}

// EditResult 编辑结果
type EditResult struct {
	State        CheckoutState `json:"state"`
	ReadyEntered bool          `json:"ready_entered"`
	FormFilled   bool          `json:"form_filled"`
}

// OrderDraft 提交时生成的下单请求
type OrderDraft struct {
	SessionID    string
	CustomerID   string
	CustomerName string
	Phone        string
	Location     string
	Courier      string
	FromCart     bool
	Lines        []models.CartLine
	Amount       models.Money
	DeliveryFee  models.Money
	Total        models.Money
	Status       constants.OrderStatus
}

// CheckoutSessionOptions 会话初始化参数
type CheckoutSessionOptions struct {
	ID           string
	CustomerID   string
	CustomerName string
	Phone        string
	Courier      string
	FromCart     bool
	Lines        []models.CartLine
}

// CheckoutView 会话对外视图
type CheckoutView struct {
	ID          string               `json:"id"`
	State       CheckoutState        `json:"state"`
	Input       CheckoutInput        `json:"input"`
	Courier     string               `json:"courier"`
	FromCart    bool                 `json:"from_cart"`
	Lines       []models.CartLine    `json:"lines"`
	Amount      models.Money         `json:"amount"`
	DeliveryFee models.Money         `json:"delivery_fee"`
	Total       models.Money         `json:"total"`
	FormFilled  bool                 `json:"form_filled"`
	FieldErrors FieldErrors          `json:"field_errors,omitempty"`
	LastError   string               `json:"last_error,omitempty"`
	Retryable   bool                 `json:"retryable"`
	OrderID     string               `json:"order_id,omitempty"`
	OrderNo     string               `json:"order_no,omitempty"`
	ReleaseCode string               `json:"release_code,omitempty"`
	Closed      bool                 `json:"closed"`
	Transitions []CheckoutTransition `json:"transitions,omitempty"`
}

// CheckoutSession 单次结算的状态机
// 提交中状态本身即为互斥锁：重复提交不会产生第二个订单
type CheckoutSession struct {
	mu           sync.Mutex
	id           string
	customerID   string
	customerName string
	courier      string
	fromCart     bool
	lines        []models.CartLine
	input        CheckoutInput
	state        CheckoutState
	fieldErrors  FieldErrors
	lastError    string
	retryable    bool
	order        *models.Order
	releaseCode  string
	closed       bool
	transitions  []CheckoutTransition
	quoter       *DeliveryQuoter
	now          func() time.Time
	touchedAt    time.Time
}

// NewCheckoutSession 创建结算会话，初始状态为 collecting
func NewCheckoutSession(opts CheckoutSessionOptions, quoter *DeliveryQuoter) *CheckoutSession {
	customerID := strings.TrimSpace(opts.CustomerID)
	if customerID == "" {
		customerID = constants.GuestCustomerID
	}
	lines := make([]models.CartLine, len(opts.Lines))
	copy(lines, opts.Lines)
	s := &CheckoutSession{
		id:           opts.ID,
		customerID:   customerID,
		customerName: strings.TrimSpace(opts.CustomerName),
		courier:      strings.ToLower(strings.TrimSpace(opts.Courier)),
		fromCart:     opts.FromCart,
		lines:        lines,
		input:        CheckoutInput{Phone: opts.Phone},
		state:        CheckoutStateCollecting,
		quoter:       quoter,
		now:          time.Now,
	}
	s.touchedAt = s.now()
	return s
}

// ID 会话ID
func (s *CheckoutSession) ID() string {
	return s.id
}

// CustomerID 会话所属买家
func (s *CheckoutSession) CustomerID() string {
	return s.customerID
}

// State 当前状态
func (s *CheckoutSession) State() CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Lines 行项目副本
func (s *CheckoutSession) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)
	return lines
}

// Input 当前输入副本
func (s *CheckoutSession) Input() CheckoutInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Edit 更新输入并按当前输入重新计算是否就绪
func (s *CheckoutSession) Edit(phone, location string) (EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditableLocked(); err != nil {
		return EditResult{State: s.state}, err
	}
	s.input = CheckoutInput{Phone: phone, Location: location}
	return s.recomputeLocked(), nil
}

// ApplyGeolocation 地址为空时用定位结果填充，已有地址时保持不变
func (s *CheckoutSession) ApplyGeolocation(label string) (EditResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditableLocked(); err != nil {
		return EditResult{State: s.state}, false, err
	}
	label = strings.TrimSpace(label)
	if label == "" || strings.TrimSpace(s.input.Location) != "" {
		return EditResult{State: s.state, FormFilled: FormFilled(s.input)}, false, nil
	}
	s.input.Location = label
	return s.recomputeLocked(), true, nil
}

// SetCourier 切换配送方式
func (s *CheckoutSession) SetCourier(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditableLocked(); err != nil {
		return err
	}
	courier, ok := s.quoter.Courier(code)
	if !ok {
		return ErrCourierInvalid
	}
	s.courier = courier.Code
	s.touchLocked()
	return nil
}

// BeginSubmit 进入提交中状态并生成下单请求
func (s *CheckoutSession) BeginSubmit() (*OrderDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == CheckoutStateSubmitting:
		return nil, ErrCheckoutInProgress
	case s.state == CheckoutStateConfirmed:
		return nil, ErrCheckoutConfirmed
	case s.closed:
		return nil, ErrCheckoutClosed
	}
	if len(s.lines) == 0 {
		return nil, ErrCheckoutEmpty
	}

	s.transitionLocked(CheckoutStateValidating)
	errs := ValidateCheckoutInput(s.input)
	if len(errs) > 0 {
		s.transitionLocked(CheckoutStateInvalid)
		s.transitionLocked(CheckoutStateCollecting)
		s.fieldErrors = errs
		return nil, ErrCheckoutInvalid
	}
	if _, ok := s.quoter.Courier(s.courier); !ok {
		s.transitionLocked(CheckoutStateCollecting)
		return nil, ErrCourierInvalid
	}
	amount, fee, total := s.quoteLocked()
	s.fieldErrors = nil
	s.lastError = ""
	s.retryable = false
	s.transitionLocked(CheckoutStateReady)
	s.transitionLocked(CheckoutStateSubmitting)

	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)
	return &OrderDraft{
		SessionID:    s.id,
		CustomerID:   s.customerID,
		CustomerName: s.customerName,
		Phone:        NormalizePhone(s.input.Phone),
		Location:     strings.TrimSpace(s.input.Location),
		Courier:      s.courier,
		FromCart:     s.fromCart,
		Lines:        lines,
		Amount:       amount,
		DeliveryFee:  fee,
		Total:        total,
		Status:       constants.OrderStatusPending,
	}, nil
}

// Complete 应用下单结果；失败回到 ready 并保留输入，成功进入 confirmed
// 会话关闭后仍然应用结果
func (s *CheckoutSession) Complete(order *models.Order, releaseCode string, err error) CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != CheckoutStateSubmitting {
		return s.state
	}
	if err != nil || order == nil {
		if err == nil {
			err = ErrOrderCreateFailed
		}
		s.transitionLocked(CheckoutStateFailed)
		s.transitionLocked(CheckoutStateReady)
		s.lastError = err.Error()
		s.retryable = isRetryableSubmitError(err)
		return s.state
	}
	s.order = order
	s.releaseCode = releaseCode
	s.lastError = ""
	s.retryable = false
	s.transitionLocked(CheckoutStateConfirmed)
	return s.state
}

// Close 关闭会话：编辑中丢弃输入；提交中仅标记关闭，结果仍会写回
func (s *CheckoutSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.state == CheckoutStateCollecting || s.state == CheckoutStateReady {
		s.input = CheckoutInput{}
		s.fieldErrors = nil
	}
	s.touchLocked()
}

// Closed 是否已关闭
func (s *CheckoutSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Order 已确认的订单
func (s *CheckoutSession) Order() *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// View 生成对外视图；取件码只在确认后的第一次读取中返回
func (s *CheckoutSession) View() CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, fee, total := s.quoteLocked()
	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)
	transitions := make([]CheckoutTransition, len(s.transitions))
	copy(transitions, s.transitions)
	view := CheckoutView{
		ID:          s.id,
		State:       s.state,
		Input:       s.input,
		Courier:     s.courier,
		FromCart:    s.fromCart,
		Lines:       lines,
		Amount:      amount,
		DeliveryFee: fee,
		Total:       total,
		FormFilled:  FormFilled(s.input),
		FieldErrors: s.fieldErrors,
		LastError:   s.lastError,
		Retryable:   s.retryable && s.state == CheckoutStateReady,
		Closed:      s.closed,
		Transitions: transitions,
	}
	if s.order != nil {
		view.OrderID = s.order.ID
		view.OrderNo = s.order.OrderNo
	}
	if s.releaseCode != "" {
		view.ReleaseCode = s.releaseCode
		s.releaseCode = ""
	}
	return view
}

// IdleSince 最近一次变更时间
func (s *CheckoutSession) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// Submitting 是否处于提交中
func (s *CheckoutSession) Submitting() bool {
	return s.State() == CheckoutStateSubmitting
}

func (s *CheckoutSession) ensureEditableLocked() error {
	switch {
	case s.state == CheckoutStateSubmitting:
		return ErrCheckoutInProgress
	case s.state == CheckoutStateConfirmed:
		return ErrCheckoutConfirmed
	case s.closed:
		return ErrCheckoutClosed
	}
	return nil
}

// recomputeLocked 就绪状态是当前输入的纯函数
func (s *CheckoutSession) recomputeLocked() EditResult {
	s.fieldErrors = nil
	valid := len(ValidateCheckoutInput(s.input)) == 0
	result := EditResult{FormFilled: FormFilled(s.input)}
	switch {
	case valid && s.state != CheckoutStateReady:
		s.transitionLocked(CheckoutStateValidating)
		s.transitionLocked(CheckoutStateReady)
		result.ReadyEntered = true
	case !valid && s.state != CheckoutStateCollecting:
		s.transitionLocked(CheckoutStateCollecting)
	}
	s.touchLocked()
	result.State = s.state
	return result
}

func (s *CheckoutSession) quoteLocked() (models.Money, models.Money, models.Money) {
	amount := models.NewMoney(0)
	for _, line := range s.lines {
		amount = amount.Plus(line.Product.Price.Times(line.Quantity))
	}
	fee, err := s.quoter.Quote(s.courier, s.input.Location)
	if err != nil {
		fee = models.NewMoney(0)
	}
	return amount, fee, amount.Plus(fee)
}

func (s *CheckoutSession) transitionLocked(to CheckoutState) {
	if s.state == to {
		return
	}
	s.transitions = append(s.transitions, CheckoutTransition{From: s.state, To: to, At: s.now()})
	if len(s.transitions) > maxCheckoutTransitions {
		s.transitions = s.transitions[len(s.transitions)-maxCheckoutTransitions:]
	}
	s.state = to
	s.touchLocked()
}

func (s *CheckoutSession) touchLocked() {
	s.touchedAt = s.now()
}

// 金额越界、总额不符、商品下架属于确定性拒绝，原样重试不会成功
var permanentSubmitErrors = []error{
	ErrInvalidOrderAmount,
	ErrOrderTotalMismatch,
	ErrInvalidOrderItem,
	ErrProductNotFound,
	ErrCheckoutEmpty,
}

func isRetryableSubmitError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range permanentSubmitErrors {
		if errors.Is(err, target) {
			return false
		}
	}
	return true
}
