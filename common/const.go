// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

const (
	// App 应用程序名称 同时也是 Prometheus 指标的 Namespace
	App = "streamwire"

	// Version 应用程序版本
	Version = "v0.0.1"

	// ReadWriteBlockSize endpoint.Connection.feed 每次从 zerocopy.Reader
	// 读取的字节数 同时也是 cmd/serve.go 里 demo server 单次 socket Read
	// 的缓冲区大小
	ReadWriteBlockSize = 4096

	// MaxMessageSize 用于构造最坏情况下单条消息体大小的测试/基准数据
	// 不对应 wire 包的任何限制 纯粹是一个方便的上界常量
	MaxMessageSize = 65535
)
