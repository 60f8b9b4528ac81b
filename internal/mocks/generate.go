package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Store --dir ../domain/event --output domain/event --outpkg eventmock --filename store_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Store --dir ../domain/document --output domain/document --outpkg documentmock --filename store_mock.go
