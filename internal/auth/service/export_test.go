package service

import "time"

func (s *AccountService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AccountService) SetCodeGenerator(gen func() (string, error)) {
	s.generateCode = gen
}

var GenerateCode = generateCode
