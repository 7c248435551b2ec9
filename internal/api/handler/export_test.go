package handler

import "time"

func (h *CustomerHandler) SetClock(now func() time.Time) { h.now = now }
func (h *PaymentHandler) SetClock(now func() time.Time)  { h.now = now }
func (h *ReportHandler) SetClock(now func() time.Time)   { h.now = now }
func (h *AuthHandler) SetClock(now func() time.Time)     { h.now = now }
