/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "github.com/labtrail/labtrail/logging"

var appLogger = logging.Logger(logging.SourceApp)
